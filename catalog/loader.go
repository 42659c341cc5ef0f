package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/labelcheck/labelcheck-api/catalog/entities"
	"github.com/labelcheck/labelcheck-api/interfaces"
	"github.com/labelcheck/labelcheck-api/logging"
)

// Compile-time check to ensure Loader implements CatalogLoader
var _ interfaces.CatalogLoader = (*Loader)(nil)

// Loader reads the regulatory tables from Postgres and builds a Catalog
// snapshot. One Load is one consistent read; the snapshot never sees partial
// updates because it replaces the previous one atomically at the container
// level.
type Loader struct {
	db *sql.DB
}

// NewLoader wraps an open database handle. The caller owns the handle.
func NewLoader(db *sql.DB) *Loader {
	return &Loader{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// Load reads every regulatory table and returns the assembled snapshot.
func (l *Loader) Load(ctx context.Context) (interfaces.CatalogStore, error) {
	started := time.Now()

	var tables Tables
	var err error

	if tables.Banned, err = l.loadBanned(ctx); err != nil {
		return nil, err
	}
	if tables.VitaminsMinerals, err = l.loadVitaminsMinerals(ctx); err != nil {
		return nil, err
	}
	if tables.AminoAcids, err = l.loadAminoAcids(ctx); err != nil {
		return nil, err
	}
	if tables.Plants, err = l.loadPlants(ctx); err != nil {
		return nil, err
	}
	if tables.Microorganisms, err = l.loadMicroorganisms(ctx); err != nil {
		return nil, err
	}
	if tables.DoseLimited, err = l.loadDoseLimited(ctx); err != nil {
		return nil, err
	}
	if tables.Excipients, err = l.loadExcipients(ctx); err != nil {
		return nil, err
	}
	if tables.FormConversions, err = l.loadFormConversions(ctx); err != nil {
		return nil, err
	}
	if tables.EfsaLimits, err = l.loadEfsaLimits(ctx); err != nil {
		return nil, err
	}
	if tables.DomesticLimits, err = l.loadDomesticLimits(ctx); err != nil {
		return nil, err
	}
	if tables.ForbiddenPhrases, err = l.loadForbiddenPhrases(ctx); err != nil {
		return nil, err
	}
	if tables.MandatoryFields, err = l.loadMandatoryFields(ctx); err != nil {
		return nil, err
	}

	c := New(tables, time.Now())
	logging.Info("Catalog loaded",
		"duration", time.Since(started).Round(time.Millisecond).String(),
		"tables", c.Counts())
	return c, nil
}

func (l *Loader) loadBanned(ctx context.Context) ([]entities.BannedSubstance, error) {
	const query = `SELECT id, name_ua, name_en, COALESCE(name_variations, '{}'),
		COALESCE(regulatory_source, '')
		FROM banned_substances ORDER BY id`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying banned_substances: %w", err)
	}
	defer rows.Close()

	var out []entities.BannedSubstance
	for rows.Next() {
		var row entities.BannedSubstance
		if err := rows.Scan(&row.ID, &row.NameUA, &row.NameEN,
			pq.Array(&row.NameVariations), &row.RegulatorySource); err != nil {
			return nil, fmt.Errorf("scanning banned_substances: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (l *Loader) loadVitaminsMinerals(ctx context.Context) ([]entities.VitaminMineral, error) {
	const query = `SELECT id, name_ua, name_en, COALESCE(name_variations, '{}'),
		COALESCE(allowed_forms, '{}'), COALESCE(efsa_mapping, ''),
		COALESCE(regulatory_source, '')
		FROM vitamins_minerals ORDER BY id`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying vitamins_minerals: %w", err)
	}
	defer rows.Close()

	var out []entities.VitaminMineral
	for rows.Next() {
		var row entities.VitaminMineral
		if err := rows.Scan(&row.ID, &row.NameUA, &row.NameEN,
			pq.Array(&row.NameVariations), pq.Array(&row.AllowedForms),
			&row.EfsaMapping, &row.RegulatorySource); err != nil {
			return nil, fmt.Errorf("scanning vitamins_minerals: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (l *Loader) loadAminoAcids(ctx context.Context) ([]entities.AminoAcid, error) {
	const query = `SELECT id, name_ua, name_en, COALESCE(name_variations, '{}'),
		max_daily_dose, COALESCE(unit, ''), COALESCE(regulatory_source, '')
		FROM amino_acids ORDER BY id`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying amino_acids: %w", err)
	}
	defer rows.Close()

	var out []entities.AminoAcid
	for rows.Next() {
		var row entities.AminoAcid
		var dose sql.NullFloat64
		if err := rows.Scan(&row.ID, &row.NameUA, &row.NameEN,
			pq.Array(&row.NameVariations), &dose, &row.Unit,
			&row.RegulatorySource); err != nil {
			return nil, fmt.Errorf("scanning amino_acids: %w", err)
		}
		if dose.Valid {
			row.MaxDailyDose = &dose.Float64
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (l *Loader) loadPlants(ctx context.Context) ([]entities.Plant, error) {
	const query = `SELECT id, COALESCE(botanical_family_ua, ''),
		COALESCE(common_name_ua, ''), COALESCE(botanical_name_lat, ''),
		COALESCE(usable_parts, '')
		FROM allowed_plants ORDER BY id`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying allowed_plants: %w", err)
	}
	defer rows.Close()

	var out []entities.Plant
	for rows.Next() {
		var row entities.Plant
		if err := rows.Scan(&row.ID, &row.BotanicalFamily, &row.CommonNameUA,
			&row.BotanicalNameLat, &row.UsableParts); err != nil {
			return nil, fmt.Errorf("scanning allowed_plants: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (l *Loader) loadMicroorganisms(ctx context.Context) ([]entities.Microorganism, error) {
	const query = `SELECT id, genus, species FROM microorganisms ORDER BY id`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying microorganisms: %w", err)
	}
	defer rows.Close()

	var out []entities.Microorganism
	for rows.Next() {
		var row entities.Microorganism
		if err := rows.Scan(&row.ID, &row.Genus, &row.Species); err != nil {
			return nil, fmt.Errorf("scanning microorganisms: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// loadDoseLimited unions the three tables that share the dose-limited shape.
// Category is carried per table so the classifier can keep them apart.
func (l *Loader) loadDoseLimited(ctx context.Context) ([]entities.DoseLimitedSubstance, error) {
	sources := []struct {
		table    string
		category entities.Category
	}{
		{table: "physiological_substances", category: entities.CategoryPhysiological},
		{table: "novel_foods", category: entities.CategoryNovelFood},
		{table: "other_substances", category: entities.CategoryOther},
	}

	var out []entities.DoseLimitedSubstance
	for _, src := range sources {
		query := fmt.Sprintf(`SELECT id, name_ua, COALESCE(name_en, ''),
			COALESCE(name_variations, '{}'), max_daily_dose, COALESCE(unit, ''),
			COALESCE(regulatory_source, '')
			FROM %s ORDER BY id`, src.table)

		rows, err := l.db.QueryContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("querying %s: %w", src.table, err)
		}

		for rows.Next() {
			row := entities.DoseLimitedSubstance{Category: src.category}
			var dose sql.NullFloat64
			if err := rows.Scan(&row.ID, &row.NameUA, &row.NameEN,
				pq.Array(&row.NameVariations), &dose, &row.Unit,
				&row.RegulatorySource); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning %s: %w", src.table, err)
			}
			if dose.Valid {
				row.MaxDailyDose = &dose.Float64
			}
			out = append(out, row)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("reading %s: %w", src.table, err)
		}
		rows.Close()
	}
	return out, nil
}

func (l *Loader) loadExcipients(ctx context.Context) ([]entities.Excipient, error) {
	const query = `SELECT id, name_ua, COALESCE(name_en, ''),
		COALESCE(name_variations, '{}')
		FROM excipients ORDER BY id`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying excipients: %w", err)
	}
	defer rows.Close()

	var out []entities.Excipient
	for rows.Next() {
		var row entities.Excipient
		if err := rows.Scan(&row.ID, &row.NameUA, &row.NameEN,
			pq.Array(&row.NameVariations)); err != nil {
			return nil, fmt.Errorf("scanning excipients: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (l *Loader) loadFormConversions(ctx context.Context) ([]entities.FormConversion, error) {
	const query = `SELECT id, substance_name_ua, COALESCE(substance_name_en, ''),
		COALESCE(form_name_ua, ''), COALESCE(name_variations, '{}'),
		elemental_coefficient_min, elemental_coefficient_max
		FROM substance_form_conversions ORDER BY id`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying substance_form_conversions: %w", err)
	}
	defer rows.Close()

	var out []entities.FormConversion
	for rows.Next() {
		var row entities.FormConversion
		var cmin, cmax sql.NullFloat64
		if err := rows.Scan(&row.ID, &row.SubstanceUA, &row.SubstanceEN,
			&row.FormUA, pq.Array(&row.NameVariations), &cmin, &cmax); err != nil {
			return nil, fmt.Errorf("scanning substance_form_conversions: %w", err)
		}
		if cmin.Valid {
			row.CoefficientMin = &cmin.Float64
		}
		if cmax.Valid {
			row.CoefficientMax = &cmax.Float64
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (l *Loader) loadEfsaLimits(ctx context.Context) ([]entities.EfsaLimit, error) {
	const query = `SELECT id, substance_key, tier, value, COALESCE(unit, ''),
		COALESCE(source, '')
		FROM efsa_limits ORDER BY id`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying efsa_limits: %w", err)
	}
	defer rows.Close()

	var out []entities.EfsaLimit
	for rows.Next() {
		var row entities.EfsaLimit
		var value sql.NullFloat64
		if err := rows.Scan(&row.ID, &row.SubstanceKey, &row.Tier, &value,
			&row.Unit, &row.Source); err != nil {
			return nil, fmt.Errorf("scanning efsa_limits: %w", err)
		}
		if value.Valid {
			row.Value = &value.Float64
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (l *Loader) loadDomesticLimits(ctx context.Context) ([]entities.DomesticLimit, error) {
	const query = `SELECT id, substance_name, tier, COALESCE(category, ''),
		value, COALESCE(unit, ''), COALESCE(source, '')
		FROM domestic_limits ORDER BY id`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying domestic_limits: %w", err)
	}
	defer rows.Close()

	var out []entities.DomesticLimit
	for rows.Next() {
		var row entities.DomesticLimit
		var value sql.NullFloat64
		if err := rows.Scan(&row.ID, &row.SubstanceName, &row.Tier,
			&row.Category, &value, &row.Unit, &row.Source); err != nil {
			return nil, fmt.Errorf("scanning domestic_limits: %w", err)
		}
		if value.Valid {
			row.Value = &value.Float64
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (l *Loader) loadForbiddenPhrases(ctx context.Context) ([]entities.ForbiddenPhrase, error) {
	const query = `SELECT id, phrase, COALESCE(variations, '{}'),
		COALESCE(category, ''), COALESCE(regulatory_source, ''),
		COALESCE(explanation, ''), COALESCE(severity, '')
		FROM forbidden_phrases ORDER BY id`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying forbidden_phrases: %w", err)
	}
	defer rows.Close()

	var out []entities.ForbiddenPhrase
	for rows.Next() {
		var row entities.ForbiddenPhrase
		if err := rows.Scan(&row.ID, &row.Phrase, pq.Array(&row.Variations),
			&row.Category, &row.RegulatorySource, &row.Explanation,
			&row.Severity); err != nil {
			return nil, fmt.Errorf("scanning forbidden_phrases: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (l *Loader) loadMandatoryFields(ctx context.Context) ([]entities.MandatoryField, error) {
	const query = `SELECT id, field_name, COALESCE(field_name_ua, ''),
		COALESCE(description, ''), COALESCE(criticality, ''),
		COALESCE(regulatory_source, ''), COALESCE(article_number, ''),
		COALESCE(error_message, ''), COALESCE(recommendation, ''),
		COALESCE(penalty_amount, 0)
		FROM mandatory_fields ORDER BY id`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying mandatory_fields: %w", err)
	}
	defer rows.Close()

	var out []entities.MandatoryField
	for rows.Next() {
		var row entities.MandatoryField
		if err := rows.Scan(&row.ID, &row.FieldName, &row.FieldNameUA,
			&row.Description, &row.Criticality, &row.RegulatorySource,
			&row.ArticleNumber, &row.ErrorMessage, &row.Recommendation,
			&row.PenaltyAmount); err != nil {
			return nil, fmt.Errorf("scanning mandatory_fields: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
