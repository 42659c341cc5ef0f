// Package catalog holds the regulatory reference data every check reads:
// banned substances, allowed vitamins and minerals with their chemical forms,
// amino acids, plants, microorganisms, dose-limited substances, EFSA and
// domestic dose ceilings, forbidden phrases and mandatory field definitions.
//
// A Catalog is an immutable snapshot built once per load. All request-time
// lookups are pure in-memory reads over pre-sorted rows, so concurrent checks
// share one snapshot without locking. Where several rows match one name, the
// row with the smallest id wins; the ambiguity is logged, never an error.
package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/labelcheck/labelcheck-api/catalog/entities"
	"github.com/labelcheck/labelcheck-api/interfaces"
	"github.com/labelcheck/labelcheck-api/logging"
	"github.com/labelcheck/labelcheck-api/normalizer"
)

// Compile-time check to ensure Catalog implements CatalogStore
var _ interfaces.CatalogStore = (*Catalog)(nil)

// Tables bundles the raw rows of every regulatory table, as loaded from
// storage. Order does not matter; the Catalog sorts by id.
type Tables struct {
	Banned           []entities.BannedSubstance
	VitaminsMinerals []entities.VitaminMineral
	AminoAcids       []entities.AminoAcid
	Plants           []entities.Plant
	Microorganisms   []entities.Microorganism
	DoseLimited      []entities.DoseLimitedSubstance
	Excipients       []entities.Excipient
	FormConversions  []entities.FormConversion
	EfsaLimits       []entities.EfsaLimit
	DomesticLimits   []entities.DomesticLimit
	ForbiddenPhrases []entities.ForbiddenPhrase
	MandatoryFields  []entities.MandatoryField
}

// Catalog is the queryable snapshot. Construct with New; zero value is empty
// but safe to query.
type Catalog struct {
	tables   Tables
	loadedAt time.Time

	// Normalized-key indexes, smallest id first on collision.
	formIndex       map[string]int
	bannedIndex     map[string]int
	vitaminIndex    map[string]int
	aminoIndex      map[string]int
	doseLimitedIdx  map[entities.Category]map[string]int
	microIndex      map[string]int
	excipientKeys   [][]string // per-excipient normalized names and variations
	plantHaystacks  []string   // per-plant lowercased family|common|latin blob
	efsaIndex       map[string]map[entities.LimitTier]int
	domesticIndexes map[entities.LimitTier]map[string]int
}

// New builds a snapshot from raw table rows, sorting every table by id so
// that first-match lookups are reproducible across loads.
func New(tables Tables, loadedAt time.Time) *Catalog {
	sortTables(&tables)

	c := &Catalog{
		tables:          tables,
		loadedAt:        loadedAt,
		formIndex:       make(map[string]int),
		bannedIndex:     make(map[string]int),
		vitaminIndex:    make(map[string]int),
		aminoIndex:      make(map[string]int),
		doseLimitedIdx:  make(map[entities.Category]map[string]int),
		microIndex:      make(map[string]int),
		efsaIndex:       make(map[string]map[entities.LimitTier]int),
		domesticIndexes: make(map[entities.LimitTier]map[string]int),
	}

	for i, row := range tables.FormConversions {
		keys := append([]string{row.SubstanceUA, row.SubstanceEN}, row.NameVariations...)
		indexKeys(c.formIndex, keys, i, "substance_form_conversions")
	}
	for i, row := range tables.Banned {
		keys := append([]string{row.NameUA, row.NameEN}, row.NameVariations...)
		indexKeys(c.bannedIndex, keys, i, "banned_substances")
	}
	for i, row := range tables.VitaminsMinerals {
		keys := append([]string{row.NameUA, row.NameEN}, row.NameVariations...)
		indexKeys(c.vitaminIndex, keys, i, "vitamins_minerals")
	}
	for i, row := range tables.AminoAcids {
		keys := append([]string{row.NameUA, row.NameEN}, row.NameVariations...)
		indexKeys(c.aminoIndex, keys, i, "amino_acids")
	}
	for i, row := range tables.DoseLimited {
		idx, ok := c.doseLimitedIdx[row.Category]
		if !ok {
			idx = make(map[string]int)
			c.doseLimitedIdx[row.Category] = idx
		}
		keys := append([]string{row.NameUA, row.NameEN}, row.NameVariations...)
		indexKeys(idx, keys, i, string(row.Category))
	}
	for i, row := range tables.Microorganisms {
		key := normalizer.MatchKey(row.Genus + " " + row.Species)
		if _, exists := c.microIndex[key]; !exists {
			c.microIndex[key] = i
		}
	}
	for i, row := range tables.EfsaLimits {
		key := normalizer.MatchKey(row.SubstanceKey)
		tiers, ok := c.efsaIndex[key]
		if !ok {
			tiers = make(map[entities.LimitTier]int)
			c.efsaIndex[key] = tiers
		}
		if _, exists := tiers[row.Tier]; !exists {
			tiers[row.Tier] = i
		}
	}
	for i, row := range tables.DomesticLimits {
		idx, ok := c.domesticIndexes[row.Tier]
		if !ok {
			idx = make(map[string]int)
			c.domesticIndexes[row.Tier] = idx
		}
		key := normalizer.MatchKey(row.SubstanceName)
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}

	c.excipientKeys = make([][]string, len(tables.Excipients))
	for i, row := range tables.Excipients {
		names := append([]string{row.NameUA, row.NameEN}, row.NameVariations...)
		keys := make([]string, 0, len(names))
		for _, n := range names {
			if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
				keys = append(keys, n)
			}
		}
		c.excipientKeys[i] = keys
	}

	c.plantHaystacks = make([]string, len(tables.Plants))
	for i, row := range tables.Plants {
		c.plantHaystacks[i] = strings.ToLower(
			row.BotanicalFamily + "|" + row.CommonNameUA + "|" + row.BotanicalNameLat)
	}

	return c
}

// indexKeys registers each normalized key, keeping the first (smallest id)
// row when two rows claim the same name.
func indexKeys(index map[string]int, names []string, row int, table string) {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		key := normalizer.MatchKey(name)
		if prev, exists := index[key]; exists {
			if prev != row {
				logging.Debug("Ambiguous catalog name, keeping first row",
					"table", table, "key", key)
			}
			continue
		}
		index[key] = row
	}
}

func sortTables(t *Tables) {
	sort.Slice(t.Banned, func(i, j int) bool { return t.Banned[i].ID < t.Banned[j].ID })
	sort.Slice(t.VitaminsMinerals, func(i, j int) bool { return t.VitaminsMinerals[i].ID < t.VitaminsMinerals[j].ID })
	sort.Slice(t.AminoAcids, func(i, j int) bool { return t.AminoAcids[i].ID < t.AminoAcids[j].ID })
	sort.Slice(t.Plants, func(i, j int) bool { return t.Plants[i].ID < t.Plants[j].ID })
	sort.Slice(t.Microorganisms, func(i, j int) bool { return t.Microorganisms[i].ID < t.Microorganisms[j].ID })
	sort.Slice(t.DoseLimited, func(i, j int) bool { return t.DoseLimited[i].ID < t.DoseLimited[j].ID })
	sort.Slice(t.Excipients, func(i, j int) bool { return t.Excipients[i].ID < t.Excipients[j].ID })
	sort.Slice(t.FormConversions, func(i, j int) bool { return t.FormConversions[i].ID < t.FormConversions[j].ID })
	sort.Slice(t.EfsaLimits, func(i, j int) bool { return t.EfsaLimits[i].ID < t.EfsaLimits[j].ID })
	sort.Slice(t.DomesticLimits, func(i, j int) bool { return t.DomesticLimits[i].ID < t.DomesticLimits[j].ID })
	sort.Slice(t.ForbiddenPhrases, func(i, j int) bool { return t.ForbiddenPhrases[i].ID < t.ForbiddenPhrases[j].ID })
	sort.Slice(t.MandatoryFields, func(i, j int) bool { return t.MandatoryFields[i].ID < t.MandatoryFields[j].ID })
}

// LoadedAt reports when this snapshot was built.
func (c *Catalog) LoadedAt() time.Time {
	return c.loadedAt
}

// FindFormConversion looks up a chemical-form row by any of the candidate
// match keys (see normalizer.MatchKeys). Returns nil when nothing matches.
func (c *Catalog) FindFormConversion(keys []string) (*entities.FormConversion, error) {
	for _, key := range keys {
		if i, ok := c.formIndex[key]; ok {
			return &c.tables.FormConversions[i], nil
		}
	}
	return nil, nil
}

// FindBanned looks up the banned-substances table.
func (c *Catalog) FindBanned(keys []string) (*entities.BannedSubstance, error) {
	for _, key := range keys {
		if i, ok := c.bannedIndex[key]; ok {
			return &c.tables.Banned[i], nil
		}
	}
	return nil, nil
}

// FindVitaminMineral looks up the allowed vitamins/minerals table.
func (c *Catalog) FindVitaminMineral(keys []string) (*entities.VitaminMineral, error) {
	for _, key := range keys {
		if i, ok := c.vitaminIndex[key]; ok {
			return &c.tables.VitaminsMinerals[i], nil
		}
	}
	return nil, nil
}

// FindAminoAcid looks up the amino-acids table.
func (c *Catalog) FindAminoAcid(keys []string) (*entities.AminoAcid, error) {
	for _, key := range keys {
		if i, ok := c.aminoIndex[key]; ok {
			return &c.tables.AminoAcids[i], nil
		}
	}
	return nil, nil
}

// FindDoseLimited looks up the physiological, novel-food or other-substances
// table selected by category.
func (c *Catalog) FindDoseLimited(category entities.Category, keys []string) (*entities.DoseLimitedSubstance, error) {
	idx, ok := c.doseLimitedIdx[category]
	if !ok {
		return nil, nil
	}
	for _, key := range keys {
		if i, ok := idx[key]; ok {
			return &c.tables.DoseLimited[i], nil
		}
	}
	return nil, nil
}

// FindMicroorganism looks up a strain by genus and species.
func (c *Catalog) FindMicroorganism(genus, species string) (*entities.Microorganism, error) {
	if i, ok := c.microIndex[normalizer.MatchKey(genus+" "+species)]; ok {
		return &c.tables.Microorganisms[i], nil
	}
	return nil, nil
}

// IsExcipient reports whether the name matches the excipient catalog by
// case-insensitive substring in either direction.
func (c *Catalog) IsExcipient(name string) (bool, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return false, nil
	}
	for _, keys := range c.excipientKeys {
		for _, key := range keys {
			if strings.Contains(key, needle) || strings.Contains(needle, key) {
				return true, nil
			}
		}
	}
	return false, nil
}

// FindPlant substring-matches a plant stem against botanical family, common
// and Latin names. First id-ordered match wins.
func (c *Catalog) FindPlant(stem string) (*entities.Plant, error) {
	stem = strings.ToLower(strings.TrimSpace(stem))
	if stem == "" {
		return nil, nil
	}
	for i, haystack := range c.plantHaystacks {
		if strings.Contains(haystack, stem) {
			return &c.tables.Plants[i], nil
		}
	}
	return nil, nil
}

// EfsaLimit returns the EFSA row for a substance key at one tier, or nil.
func (c *Catalog) EfsaLimit(substanceKey string, tier entities.LimitTier) (*entities.EfsaLimit, error) {
	tiers, ok := c.efsaIndex[normalizer.MatchKey(substanceKey)]
	if !ok {
		return nil, nil
	}
	if i, ok := tiers[tier]; ok {
		return &c.tables.EfsaLimits[i], nil
	}
	return nil, nil
}

// DomesticLimit returns the domestic (Table-1 or Appendix) row matching any
// candidate key at one tier, or nil.
func (c *Catalog) DomesticLimit(keys []string, tier entities.LimitTier) (*entities.DomesticLimit, error) {
	idx, ok := c.domesticIndexes[tier]
	if !ok {
		return nil, nil
	}
	for _, key := range keys {
		if i, ok := idx[key]; ok {
			return &c.tables.DomesticLimits[i], nil
		}
	}
	return nil, nil
}

// ForbiddenPhrases returns all forbidden-phrase rows, id-ordered.
func (c *Catalog) ForbiddenPhrases() ([]entities.ForbiddenPhrase, error) {
	return c.tables.ForbiddenPhrases, nil
}

// CriticalFields returns the mandatory-field rows enforced as critical.
func (c *Catalog) CriticalFields() ([]entities.MandatoryField, error) {
	critical := make([]entities.MandatoryField, 0, len(c.tables.MandatoryFields))
	for _, field := range c.tables.MandatoryFields {
		if field.Criticality == "critical" {
			critical = append(critical, field)
		}
	}
	return critical, nil
}

// Counts reports per-table row counts for health reporting.
func (c *Catalog) Counts() map[string]int {
	return map[string]int{
		"banned_substances":          len(c.tables.Banned),
		"vitamins_minerals":          len(c.tables.VitaminsMinerals),
		"amino_acids":                len(c.tables.AminoAcids),
		"plants":                     len(c.tables.Plants),
		"microorganisms":             len(c.tables.Microorganisms),
		"dose_limited_substances":    len(c.tables.DoseLimited),
		"excipients":                 len(c.tables.Excipients),
		"substance_form_conversions": len(c.tables.FormConversions),
		"efsa_limits":                len(c.tables.EfsaLimits),
		"domestic_limits":            len(c.tables.DomesticLimits),
		"forbidden_phrases":          len(c.tables.ForbiddenPhrases),
		"mandatory_fields":           len(c.tables.MandatoryFields),
	}
}
