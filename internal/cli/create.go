package cli

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
)

// Scaffold contents for a new project. The sample scene renders to a
// recognizable frame on the first run: a baseplate, a colored brick, and
// a score label.
var scaffoldFiles = map[string]string{
	".ludock/plugins/manifest.json": `{
  "plugins": []
}
`,
	"ludock.toml": `# LuDock project configuration.

[render]
width = 800
height = 600

[analysis]
relaxed = false
`,
	"game/Workspace/Baseplate.part": `Size = Vector3.new(64, 1, 64)
Position = Vector3.new(0, -0.5, 0)
Color = Color3.fromRGB(120, 140, 120)
Anchored = true
`,
	"game/Workspace/Brick.part": `Size = Vector3.new(4, 2, 2)
Position = Vector3.new(0, 1, 0)
Color = Color3.fromRGB(196, 40, 28)
Anchored = true
`,
	"game/ServerScriptService/Main.server.lua": `print("Hello from LuDock")
`,
	"game/StarterGui/Hud.gui/Score.label": `Text = "Score: 0"
Position = UDim2.new(0, 16, 0, 16)
Size = UDim2.new(0, 120, 0, 24)
`,
	"game/ReplicatedStorage/Util.module.lua": `local Util = {}

function Util.greet(name)
	return "Hello, " .. name
end

return Util
`,
}

// newCreateCmd creates the create command: scaffold a new scene project.
func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Scaffold a new scene project",
		Long: `Create scaffolds a project directory with the game/ service layout,
a sample scene, and a ludock.toml configuration file. The generated
project validates and renders as-is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, err := os.Stat(name); err == nil {
				return fmt.Errorf("directory %q already exists", name)
			}

			for _, rel := range slices.Sorted(maps.Keys(scaffoldFiles)) {
				path := filepath.Join(name, filepath.FromSlash(rel))
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
				}
				if err := os.WriteFile(path, []byte(scaffoldFiles[rel]), 0o644); err != nil {
					return fmt.Errorf("create %s: %w", path, err)
				}
				printFile(path)
			}
			if err := os.MkdirAll(filepath.Join(name, resultsDir), 0o755); err != nil {
				return fmt.Errorf("create results dir: %w", err)
			}

			printNewline()
			printSuccess("Created project %q", name)
			printNextStep("Validate and snapshot it", fmt.Sprintf("ludock run %s", name))
			return nil
		},
	}
	return cmd
}
