package persons

// DefectKind names the kind of data-quality defect injected into a field.
type DefectKind string

const (
	DefectMissing   DefectKind = "missing"
	DefectPartial   DefectKind = "partial"
	DefectTypo      DefectKind = "typo"
	DefectFormat    DefectKind = "format"
	DefectOutlier   DefectKind = "outlier"
	DefectDuplicate DefectKind = "duplicate"
)

// Defect records one injected defect. Field uses dotted paths like "addresses.street_1".
type Defect struct {
	Field string
	Kind  DefectKind
}
