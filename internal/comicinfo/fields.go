package comicinfo

// Field identifies one known ComicInfo.xml element.
type Field int

const (
	Title Field = iota
	Series
	Number
	Count
	Volume
	VolumeCount
	AlternateSeries
	AlternateNumber
	AlternateCount
	Year
	Month
	Day
	Publisher
	Imprint
	SeriesComplete
	Manga

	Writer
	Penciller
	Inker
	Colorist
	Letterer
	CoverArtist
	Editor
	AuthorSort
	MainCharacterOrTeam
	Characters
	Teams
	Locations

	Summary
	Notes
	Review
	Tags
	ScanInformation
	StoryArc
	SeriesGroup

	Format
	GTIN
	Web
	Genre
	Country
	LanguageISO
	AgeRating
	CommunityRating
	BlackAndWhite
	Read

	fieldCount
)

// Group is the section of the metadata form a field belongs to.
type Group string

const (
	GroupMain    Group = "Main Information"
	GroupPeople  Group = "Artists & People"
	GroupPlot    Group = "Plot & Notes"
	GroupDetails Group = "Format & Details"
)

type fieldSpec struct {
	element string
	kind    Kind
	group   Group
	aliases []string // keys used by the original editor form
}

var fieldSpecs = [fieldCount]fieldSpec{
	Title:           {"Title", KindText, GroupMain, nil},
	Series:          {"Series", KindText, GroupMain, nil},
	Number:          {"Number", KindText, GroupMain, []string{"issue number"}},
	Count:           {"Count", KindInt, GroupMain, []string{"issuecount", "issue count"}},
	Volume:          {"Volume", KindInt, GroupMain, nil},
	VolumeCount:     {"VolumeCount", KindInt, GroupMain, []string{"volume_count", "total volumes"}},
	AlternateSeries: {"AlternateSeries", KindText, GroupMain, nil},
	AlternateNumber: {"AlternateNumber", KindText, GroupMain, nil},
	AlternateCount:  {"AlternateCount", KindInt, GroupMain, []string{"alternateissuecount"}},
	Year:            {"Year", KindInt, GroupMain, nil},
	Month:           {"Month", KindInt, GroupMain, nil},
	Day:             {"Day", KindInt, GroupMain, nil},
	Publisher:       {"Publisher", KindText, GroupMain, nil},
	Imprint:         {"Imprint", KindText, GroupMain, nil},
	SeriesComplete:  {"SeriesComplete", KindYesNo, GroupMain, nil},
	Manga:           {"Manga", KindManga, GroupMain, []string{"manga format"}},

	Writer:              {"Writer", KindText, GroupPeople, nil},
	Penciller:           {"Penciller", KindText, GroupPeople, nil},
	Inker:               {"Inker", KindText, GroupPeople, nil},
	Colorist:            {"Colorist", KindText, GroupPeople, nil},
	Letterer:            {"Letterer", KindText, GroupPeople, nil},
	CoverArtist:         {"CoverArtist", KindText, GroupPeople, nil},
	Editor:              {"Editor", KindText, GroupPeople, nil},
	AuthorSort:          {"AuthorSort", KindText, GroupPeople, []string{"author sort key"}},
	MainCharacterOrTeam: {"MainCharacterOrTeam", KindText, GroupPeople, []string{"maincharacter"}},
	Characters:          {"Characters", KindText, GroupPeople, nil},
	Teams:               {"Teams", KindText, GroupPeople, nil},
	Locations:           {"Locations", KindText, GroupPeople, nil},

	Summary:         {"Summary", KindText, GroupPlot, nil},
	Notes:           {"Notes", KindText, GroupPlot, nil},
	Review:          {"Review", KindText, GroupPlot, nil},
	Tags:            {"Tags", KindText, GroupPlot, nil},
	ScanInformation: {"ScanInformation", KindText, GroupPlot, nil},
	StoryArc:        {"StoryArc", KindText, GroupPlot, nil},
	SeriesGroup:     {"SeriesGroup", KindText, GroupPlot, nil},

	Format:          {"Format", KindText, GroupDetails, nil},
	GTIN:            {"GTIN", KindText, GroupDetails, []string{"isbn", "upc"}},
	Web:             {"Web", KindText, GroupDetails, []string{"web link"}},
	Genre:           {"Genre", KindText, GroupDetails, nil},
	Country:         {"Country", KindText, GroupDetails, nil},
	LanguageISO:     {"LanguageISO", KindText, GroupDetails, []string{"language"}},
	AgeRating:       {"AgeRating", KindText, GroupDetails, []string{"maturity rating"}},
	CommunityRating: {"CommunityRating", KindFloat, GroupDetails, nil},
	BlackAndWhite:   {"BlackAndWhite", KindYesNo, GroupDetails, []string{"black & white"}},
	Read:            {"Read", KindReadStatus, GroupDetails, []string{"read status"}},
}

var byElement = func() map[string]Field {
	m := make(map[string]Field, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		m[fieldSpecs[f].element] = f
	}
	return m
}()

// Fields returns every known field in serialization order.
func Fields() []Field {
	out := make([]Field, fieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// Lookup returns the field whose XML element name is exactly name.
func Lookup(name string) (Field, bool) {
	f, ok := byElement[name]
	return f, ok
}

func (f Field) Valid() bool { return f >= 0 && f < fieldCount }

// String returns the XML element name.
func (f Field) String() string {
	if !f.Valid() {
		return "Field(?)"
	}
	return fieldSpecs[f].element
}

func (f Field) Kind() Kind {
	if !f.Valid() {
		return KindText
	}
	return fieldSpecs[f].kind
}

func (f Field) Group() Group {
	if !f.Valid() {
		return ""
	}
	return fieldSpecs[f].group
}

// Aliases returns the alternative lookup keys of f, not including its element name.
func (f Field) Aliases() []string {
	if !f.Valid() {
		return nil
	}
	return append([]string(nil), fieldSpecs[f].aliases...)
}
