// internal/field/types.go
//
// Field type catalog.
//
// Context
// -------
// Every form field carries one Type from a closed set.  The builder palette
// lists them through Types(), grouped by Category so the editor can render
// "basic", "choice", "advanced", and "layout" sections.  The catalog is a
// lookup table, not a computed classification, and it never changes at
// runtime.
//
// Notes
// -----
// • Icon names follow the lucide icon set used by the builder front end.
// • Layout types (divider, page_break) never carry values and are skipped
//   by the schema compiler and the visibility resolver's value lookups.
// • Oxford commas, two spaces after periods.
package field

// Type is the closed enumeration of supported field kinds.
type Type string

const (
	TypeText          Type = "text"
	TypeEmail         Type = "email"
	TypeLongText      Type = "longtext"
	TypeNumber        Type = "number"
	TypePhone         Type = "phone"
	TypeURL           Type = "url"
	TypeDate          Type = "date"
	TypeCheckbox      Type = "checkbox"
	TypeRadio         Type = "radio"
	TypeDropdown      Type = "dropdown"
	TypeRating        Type = "rating"
	TypeFile          Type = "file"
	TypeMatrix        Type = "matrix"
	TypeRanking       Type = "ranking"
	TypePictureChoice Type = "picture_choice"
	TypeSignature     Type = "signature"
	TypePageBreak     Type = "page_break"
	TypeDivider       Type = "divider"
)

// Category groups types for the editor palette.
type Category string

const (
	CategoryBasic    Category = "basic"
	CategoryChoice   Category = "choice"
	CategoryAdvanced Category = "advanced"
	CategoryLayout   Category = "layout"
)

// TypeInfo is one palette entry.
type TypeInfo struct {
	Type     Type     `json:"type"`
	Label    string   `json:"label"`
	Icon     string   `json:"icon"`
	Category Category `json:"category"`
}

var catalog = []TypeInfo{
	{TypeText, "Short Text", "Type", CategoryBasic},
	{TypeLongText, "Long Text", "FileText", CategoryBasic},
	{TypeEmail, "Email", "Mail", CategoryBasic},
	{TypeNumber, "Number", "Hash", CategoryBasic},
	{TypePhone, "Phone", "Phone", CategoryBasic},
	{TypeURL, "URL", "Link", CategoryBasic},
	{TypeDate, "Date", "Calendar", CategoryBasic},
	{TypeCheckbox, "Checkbox", "CheckSquare", CategoryChoice},
	{TypeRadio, "Radio", "Circle", CategoryChoice},
	{TypeDropdown, "Dropdown", "List", CategoryChoice},
	{TypeRating, "Rating", "Star", CategoryChoice},
	{TypeRanking, "Ranking", "ListOrdered", CategoryChoice},
	{TypePictureChoice, "Picture Choice", "Image", CategoryChoice},
	{TypeMatrix, "Matrix", "Grid3x3", CategoryChoice},
	{TypeFile, "File Upload", "Upload", CategoryAdvanced},
	{TypeSignature, "Signature", "PenTool", CategoryAdvanced},
	{TypePageBreak, "Page Break", "SeparatorHorizontal", CategoryLayout},
	{TypeDivider, "Divider", "Minus", CategoryLayout},
}

var byType = func() map[Type]TypeInfo {
	m := make(map[Type]TypeInfo, len(catalog))
	for _, ti := range catalog {
		m[ti.Type] = ti
	}
	return m
}()

// Types returns the palette catalog in display order.  The slice is a copy;
// callers may modify it freely.
func Types() []TypeInfo {
	out := make([]TypeInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Info returns the catalog entry for t.
func Info(t Type) (TypeInfo, bool) {
	ti, ok := byType[t]
	return ti, ok
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	_, ok := byType[t]
	return ok
}

// IsLayout reports whether t is a purely presentational element that never
// carries a value.
func (t Type) IsLayout() bool { return t == TypeDivider || t == TypePageBreak }

// defaultLabel is the label a freshly added field starts with.
func defaultLabel(t Type) string {
	switch t {
	case TypeText:
		return "Short Text"
	case TypeLongText:
		return "Long Text"
	case TypeMatrix:
		return "Matrix Question"
	}
	if ti, ok := byType[t]; ok {
		return ti.Label
	}
	return "Field"
}
