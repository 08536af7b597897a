package datamodel

import "slices"

// Class names. The set is closed: validation consults the class table, so
// there is no inheritance chain to walk.
const (
	ClassDataModel = "DataModel"

	// Services. Singletons that may only live directly under the root.
	ClassWorkspace           = "Workspace"
	ClassLighting            = "Lighting"
	ClassReplicatedFirst     = "ReplicatedFirst"
	ClassReplicatedStorage   = "ReplicatedStorage"
	ClassServerScriptService = "ServerScriptService"
	ClassServerStorage       = "ServerStorage"
	ClassStarterGui          = "StarterGui"
	ClassStarterPack         = "StarterPack"
	ClassStarterPlayer       = "StarterPlayer"
	ClassSoundService        = "SoundService"

	// Containers and world geometry.
	ClassFolder = "Folder"
	ClassModel  = "Model"
	ClassPart   = "Part"
	ClassCamera = "Camera"

	// Scripts.
	ClassScript       = "Script"
	ClassLocalScript  = "LocalScript"
	ClassModuleScript = "ModuleScript"

	// UI.
	ClassScreenGui  = "ScreenGui"
	ClassFrame      = "Frame"
	ClassTextLabel  = "TextLabel"
	ClassTextButton = "TextButton"
)

// ClassSpec declares a class's placement and property rules.
type ClassSpec struct {
	Name string

	// LegalParents lists the classes this class may be parented under.
	// Empty means root-only (the DataModel itself).
	LegalParents []string

	// Properties maps legal property names to their declared kinds.
	// Name and ClassName are implicitly legal on every class.
	Properties map[string]Kind

	// Service marks root-level singletons.
	Service bool

	// Renderable marks classes the 3D pass rasterizes.
	Renderable bool

	// Gui marks classes the 2D pass composites.
	Gui bool
}

var serviceParents = []string{ClassDataModel}

// containerParents are the places general content can live.
var containerParents = []string{
	ClassWorkspace, ClassModel, ClassFolder,
	ClassReplicatedStorage, ClassServerStorage,
}

var folderParents = []string{
	ClassWorkspace, ClassModel, ClassFolder,
	ClassReplicatedFirst, ClassReplicatedStorage,
	ClassServerScriptService, ClassServerStorage,
	ClassStarterGui, ClassStarterPack, ClassStarterPlayer, ClassSoundService,
}

var scriptParents = []string{
	ClassWorkspace, ClassModel, ClassFolder,
	ClassServerScriptService, ClassStarterPlayer,
}

var localScriptParents = []string{
	ClassFolder, ClassModel,
	ClassReplicatedFirst, ClassStarterGui, ClassStarterPack, ClassStarterPlayer,
	ClassScreenGui, ClassFrame,
}

var guiParents = []string{ClassScreenGui, ClassFrame}

// guiObjectProperties are shared by every 2D element.
var guiObjectProperties = map[string]Kind{
	"Position":               KindUDim2,
	"Size":                   KindUDim2,
	"BackgroundColor3":       KindColor3,
	"BackgroundTransparency": KindNumber,
	"BorderSizePixel":        KindNumber,
	"Visible":                KindBool,
	"ZIndex":                 KindNumber,
}

var textProperties = map[string]Kind{
	"Text":       KindString,
	"TextColor3": KindColor3,
	"TextSize":   KindNumber,
	"Font":       KindEnum,
}

func mergeProps(maps ...map[string]Kind) map[string]Kind {
	out := make(map[string]Kind)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// classTable is the static class registry consulted by all validation.
var classTable = map[string]ClassSpec{
	ClassDataModel: {Name: ClassDataModel},

	ClassWorkspace: {
		Name: ClassWorkspace, LegalParents: serviceParents, Service: true,
		Properties: map[string]Kind{"Gravity": KindNumber},
	},
	ClassLighting: {
		Name: ClassLighting, LegalParents: serviceParents, Service: true,
		Properties: map[string]Kind{
			"Ambient":    KindColor3,
			"Brightness": KindNumber,
			"ClockTime":  KindNumber,
		},
	},
	ClassReplicatedFirst:     {Name: ClassReplicatedFirst, LegalParents: serviceParents, Service: true},
	ClassReplicatedStorage:   {Name: ClassReplicatedStorage, LegalParents: serviceParents, Service: true},
	ClassServerScriptService: {Name: ClassServerScriptService, LegalParents: serviceParents, Service: true},
	ClassServerStorage:       {Name: ClassServerStorage, LegalParents: serviceParents, Service: true},
	ClassStarterGui:          {Name: ClassStarterGui, LegalParents: serviceParents, Service: true},
	ClassStarterPack:         {Name: ClassStarterPack, LegalParents: serviceParents, Service: true},
	ClassStarterPlayer:       {Name: ClassStarterPlayer, LegalParents: serviceParents, Service: true},
	ClassSoundService: {
		Name: ClassSoundService, LegalParents: serviceParents, Service: true,
		Properties: map[string]Kind{"RespectFilteringEnabled": KindBool},
	},

	ClassFolder: {Name: ClassFolder, LegalParents: folderParents},
	ClassModel:  {Name: ClassModel, LegalParents: containerParents},

	ClassPart: {
		Name:         ClassPart,
		LegalParents: []string{ClassWorkspace, ClassModel, ClassFolder},
		Renderable:   true,
		Properties: map[string]Kind{
			"Size":         KindVector3,
			"CFrame":       KindCFrame,
			"Position":     KindVector3,
			"Color":        KindColor3,
			"Shape":        KindEnum,
			"Material":     KindEnum,
			"Anchored":     KindBool,
			"CanCollide":   KindBool,
			"Transparency": KindNumber,
			"Reflectance":  KindNumber,
		},
	},
	ClassCamera: {
		Name:         ClassCamera,
		LegalParents: []string{ClassWorkspace},
		Properties: map[string]Kind{
			"CFrame":      KindCFrame,
			"Focus":       KindCFrame,
			"FieldOfView": KindNumber,
		},
	},

	ClassScript: {
		Name: ClassScript, LegalParents: scriptParents,
		Properties: map[string]Kind{"Source": KindString, "Disabled": KindBool},
	},
	ClassLocalScript: {
		Name: ClassLocalScript, LegalParents: localScriptParents,
		Properties: map[string]Kind{"Source": KindString, "Disabled": KindBool},
	},
	ClassModuleScript: {
		Name:         ClassModuleScript,
		LegalParents: append([]string{ClassReplicatedFirst}, containerParents...),
		Properties:   map[string]Kind{"Source": KindString},
	},

	ClassScreenGui: {
		Name: ClassScreenGui, LegalParents: []string{ClassStarterGui}, Gui: true,
		Properties: map[string]Kind{
			"Enabled":      KindBool,
			"DisplayOrder": KindNumber,
		},
	},
	ClassFrame: {
		Name: ClassFrame, LegalParents: guiParents, Gui: true,
		Properties: guiObjectProperties,
	},
	ClassTextLabel: {
		Name: ClassTextLabel, LegalParents: guiParents, Gui: true,
		Properties: mergeProps(guiObjectProperties, textProperties),
	},
	ClassTextButton: {
		Name: ClassTextButton, LegalParents: guiParents, Gui: true,
		Properties: mergeProps(guiObjectProperties, textProperties),
	},
}

// LookupClass returns the spec for a class name.
func LookupClass(name string) (ClassSpec, bool) {
	spec, ok := classTable[name]
	return spec, ok
}

// KnownClass reports whether name is in the closed class set.
func KnownClass(name string) bool {
	_, ok := classTable[name]
	return ok
}

// LegalChild reports whether childClass may be parented under parentClass.
func LegalChild(parentClass, childClass string) bool {
	spec, ok := classTable[childClass]
	if !ok {
		return false
	}
	if len(spec.LegalParents) == 0 {
		return false // root-only
	}
	return slices.Contains(spec.LegalParents, parentClass)
}

// PropertyKind returns the declared kind of a property on a class.
// Name and ClassName are legal strings on every class.
func PropertyKind(class, property string) (Kind, bool) {
	if property == "Name" || property == "ClassName" {
		return KindString, true
	}
	spec, ok := classTable[class]
	if !ok {
		return 0, false
	}
	kind, ok := spec.Properties[property]
	return kind, ok
}
