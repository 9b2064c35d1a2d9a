package detection

// Bethesda reporting-system categories, ordered by class index as emitted
// by the detector. The order is part of the model contract; per-class
// score vectors are indexed by it.
var BethesdaClasses = []string{
	"NILM",
	"ASC-US",
	"ASC-H",
	"LSIL",
	"HSIL",
	"SCC",
}

// ClassDescriptions maps each category to its clinical long form, used by
// the serving layer's model-info endpoint.
var ClassDescriptions = map[string]string{
	"NILM":   "Negative for intraepithelial lesion or malignancy",
	"ASC-US": "Atypical squamous cells of undetermined significance",
	"ASC-H":  "Atypical squamous cells, cannot exclude HSIL",
	"LSIL":   "Low-grade squamous intraepithelial lesion",
	"HSIL":   "High-grade squamous intraepithelial lesion",
	"SCC":    "Squamous cell carcinoma",
}
