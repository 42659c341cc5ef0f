// Package dosage classifies resolved ingredients into regulatory categories
// and walks the dose-limit hierarchy for each: banned list first, then the
// category routine, then limit tiers in strict precedence (EFSA Upper Limit,
// EFSA Safe Level, domestic Table-1, domestic Appendix). The first tier
// carrying a numeric value decides the verdict; lower tiers are never
// consulted once a higher one applies.
package dosage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/labelcheck/labelcheck-api/catalog/entities"
	"github.com/labelcheck/labelcheck-api/interfaces"
	"github.com/labelcheck/labelcheck-api/label"
	"github.com/labelcheck/labelcheck-api/logging"
	"github.com/labelcheck/labelcheck-api/mapper"
	"github.com/labelcheck/labelcheck-api/normalizer"
)

const defaultRegulatorySource = "Наказ МОЗ №1114"

// Evaluator resolves label ingredients and evaluates their doses against the
// catalog. Stateless between calls; safe for concurrent use.
type Evaluator struct {
	catalog  interfaces.CatalogStore
	resolver *mapper.Resolver
}

// NewEvaluator creates an evaluator reading from the given catalog.
func NewEvaluator(catalog interfaces.CatalogStore) *Evaluator {
	return &Evaluator{
		catalog:  catalog,
		resolver: mapper.NewResolver(catalog),
	}
}

// categoryRoutines dispatches a classified ingredient to its check. One
// routine per category, nothing probes ad hoc outside this table.
var categoryRoutines = map[entities.Category]func(*Evaluator, mapper.ResolvedIngredient) Verdict{
	entities.CategoryBanned:         (*Evaluator).checkBanned,
	entities.CategoryVitaminMineral: (*Evaluator).checkVitaminMineral,
	entities.CategoryAminoAcid:      (*Evaluator).checkAminoAcid,
	entities.CategoryPlant:          (*Evaluator).checkPlant,
	entities.CategoryMicroorganism:  (*Evaluator).checkMicroorganism,
	entities.CategoryPhysiological: func(e *Evaluator, r mapper.ResolvedIngredient) Verdict {
		return e.checkDoseLimited(r, entities.CategoryPhysiological, "physiological_substances")
	},
	entities.CategoryNovelFood: func(e *Evaluator, r mapper.ResolvedIngredient) Verdict {
		return e.checkDoseLimited(r, entities.CategoryNovelFood, "novel_foods")
	},
	entities.CategoryOther: func(e *Evaluator, r mapper.ResolvedIngredient) Verdict {
		return e.checkDoseLimited(r, entities.CategoryOther, "other_substances")
	},
}

// EvaluateAll expands composite lines, then evaluates every ingredient
// concurrently into its own result slot. A cancelled context leaves the
// remaining slots as explicit "interrupted" warnings rather than holes.
func (e *Evaluator) EvaluateAll(ctx context.Context, ingredients []label.IngredientRecord) Result {
	expanded := make([]label.IngredientRecord, 0, len(ingredients))
	for _, ing := range ingredients {
		expanded = append(expanded, mapper.SplitComposition(ing)...)
	}

	verdicts := make([]Verdict, len(expanded))
	var wg sync.WaitGroup
	for i := range expanded {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					logging.Error("Panic during ingredient evaluation",
						"ingredient", expanded[slot].Name, "panic", rec)
					verdicts[slot] = verifyManuallyVerdict(expanded[slot].Name)
				}
			}()
			if ctx.Err() != nil {
				verdicts[slot] = Verdict{
					Ingredient: expanded[slot].Name,
					Status:     StatusWarning,
					Category:   entities.CategoryUnknown,
					Message:    "Перевірку перервано",
				}
				return
			}
			verdicts[slot] = e.Evaluate(expanded[slot])
		}(i)
	}
	wg.Wait()

	result := Result{
		Verdicts:                verdicts,
		AllValid:                true,
		TotalIngredientsChecked: len(expanded),
	}
	for _, v := range verdicts {
		switch v.Status {
		case StatusError:
			result.ErrorCount++
			result.AllValid = false
		case StatusWarning:
			result.WarningCount++
		}
		if v.Category == entities.CategoryUnknown {
			result.SubstancesNotFound++
		}
	}
	return result
}

// Evaluate resolves and evaluates a single ingredient. Catalog failures never
// abort the label: they degrade to a check-manually warning for this
// ingredient only.
func (e *Evaluator) Evaluate(ing label.IngredientRecord) Verdict {
	resolved, err := e.resolver.Resolve(ing)
	if err != nil {
		logging.Warn("Catalog lookup failed during resolution",
			"ingredient", ing.Name, "error", err)
		return verifyManuallyVerdict(ing.Name)
	}
	return e.evaluateResolved(resolved)
}

func (e *Evaluator) evaluateResolved(r mapper.ResolvedIngredient) Verdict {
	category, err := e.classify(r)
	if err != nil {
		logging.Warn("Catalog lookup failed during classification",
			"ingredient", r.CleanName, "error", err)
		return verifyManuallyVerdict(r.CleanName)
	}

	if category == entities.CategoryExcipient {
		return Verdict{
			Ingredient: r.CleanName,
			Status:     StatusOK,
			Category:   category,
			Note:       "Допоміжна речовина, дозування не перевіряється",
		}
	}

	routine, ok := categoryRoutines[category]
	if !ok {
		return e.checkUnknown(r)
	}
	return routine(e, r)
}

// classify probes categories in precedence order. Banned always wins,
// whatever else the name also matches.
func (e *Evaluator) classify(r mapper.ResolvedIngredient) (entities.Category, error) {
	keys := lookupKeys(r)

	if row, err := e.catalog.FindBanned(keys); err != nil {
		return entities.CategoryUnknown, err
	} else if row != nil {
		return entities.CategoryBanned, nil
	}

	if r.CategoryHint == entities.CategoryExcipient {
		return entities.CategoryExcipient, nil
	}

	if row, err := e.catalog.FindVitaminMineral(keys); err != nil {
		return entities.CategoryUnknown, err
	} else if row != nil {
		return entities.CategoryVitaminMineral, nil
	}

	if row, err := e.catalog.FindAminoAcid(keys); err != nil {
		return entities.CategoryUnknown, err
	} else if row != nil {
		return entities.CategoryAminoAcid, nil
	}

	if r.CategoryHint == entities.CategoryPlant {
		return entities.CategoryPlant, nil
	}
	if row, err := e.catalog.FindPlant(normalizer.PlantStem(r.CleanName)); err != nil {
		return entities.CategoryUnknown, err
	} else if row != nil {
		return entities.CategoryPlant, nil
	}

	if r.CategoryHint == entities.CategoryMicroorganism {
		return entities.CategoryMicroorganism, nil
	}
	if tokens := strings.Fields(r.CleanName); len(tokens) >= 2 {
		if row, err := e.catalog.FindMicroorganism(tokens[0], tokens[1]); err != nil {
			return entities.CategoryUnknown, err
		} else if row != nil {
			return entities.CategoryMicroorganism, nil
		}
	}

	for _, category := range []entities.Category{
		entities.CategoryPhysiological,
		entities.CategoryNovelFood,
		entities.CategoryOther,
	} {
		if row, err := e.catalog.FindDoseLimited(category, keys); err != nil {
			return entities.CategoryUnknown, err
		} else if row != nil {
			return category, nil
		}
	}

	if r.CategoryHint != "" && r.CategoryHint != entities.CategoryUnknown {
		return r.CategoryHint, nil
	}
	return entities.CategoryUnknown, nil
}

func (e *Evaluator) checkBanned(r mapper.ResolvedIngredient) Verdict {
	row, err := e.catalog.FindBanned(lookupKeys(r))
	if err != nil || row == nil {
		return verifyManuallyVerdict(r.CleanName)
	}

	source := row.RegulatorySource
	if source == "" {
		source = defaultRegulatorySource
	}
	return Verdict{
		Ingredient:       r.CleanName,
		Status:           StatusError,
		Category:         entities.CategoryBanned,
		Level:            LevelBanned,
		Source:           "banned_substances",
		Message:          "Заборонена речовина в складі дієтичної добавки",
		CurrentDose:      doseString(r.Quantity, r.Unit),
		RegulatorySource: source,
		Recommendation: fmt.Sprintf(
			"Видаліть '%s' зі складу продукту. Речовина заборонена для використання в дієтичних добавках.",
			row.NameUA),
		PenaltyAmount: PenaltyDosage,
	}
}

func (e *Evaluator) checkVitaminMineral(r mapper.ResolvedIngredient) Verdict {
	keys := lookupKeys(r)
	row, err := e.catalog.FindVitaminMineral(keys)
	if err != nil {
		return verifyManuallyVerdict(r.CleanName)
	}
	if row == nil {
		return e.notFoundVerdict(r, entities.CategoryVitaminMineral)
	}
	if r.ElementalQuantity == nil {
		return quantityMissingVerdict(r, entities.CategoryVitaminMineral)
	}

	// A successful form conversion already validated the chemical form; only
	// a separately declared form still needs checking.
	var formWarning *Verdict
	if r.Form == "" && r.DeclaredForm != "" && len(row.AllowedForms) > 0 &&
		!formAllowed(r.DeclaredForm, row.AllowedForms) {
		formWarning = &Verdict{
			Ingredient:       r.CleanName,
			Status:           StatusWarning,
			Category:         entities.CategoryVitaminMineral,
			Message:          fmt.Sprintf("Форма '%s' не є дозволеною для цієї речовини", r.DeclaredForm),
			RegulatorySource: row.RegulatorySource,
			Recommendation:   "Використовуйте одну з дозволених форм: " + strings.Join(row.AllowedForms, ", "),
		}
	}

	if row.EfsaMapping != "" {
		ul, err := e.catalog.EfsaLimit(row.EfsaMapping, entities.TierEfsaUL)
		if err != nil {
			return verifyManuallyVerdict(r.CleanName)
		}
		if ul != nil && ul.Value != nil {
			return e.tierVerdict(r, tierContext{
				value:   *ul.Value,
				unit:    ul.Unit,
				level:   LevelEfsaUL,
				source:  "efsa_ul",
				message: "Дозування перевищує верхній допустимий рівень EFSA (UL)",
				citedAs: ul.Source,
			}, formWarning)
		}

		safe, err := e.catalog.EfsaLimit(row.EfsaMapping, entities.TierEfsaSafe)
		if err != nil {
			return verifyManuallyVerdict(r.CleanName)
		}
		if safe != nil && safe.Value != nil {
			return e.tierVerdict(r, tierContext{
				value:   *safe.Value,
				unit:    safe.Unit,
				level:   LevelEfsaSafe,
				source:  "efsa_safe_level",
				message: "Дозування перевищує безпечний рівень споживання EFSA",
				citedAs: safe.Source,
			}, formWarning)
		}
	}

	table1, err := e.catalog.DomesticLimit(keys, entities.TierTable1)
	if err != nil {
		return verifyManuallyVerdict(r.CleanName)
	}
	if table1 != nil && table1.Value != nil &&
		(table1.Category == "" || table1.Category == entities.CategoryVitaminMineral) {
		return e.tierVerdict(r, tierContext{
			value:   *table1.Value,
			unit:    table1.Unit,
			level:   LevelTable1,
			source:  "table1",
			message: "Дозування перевищує норму Таблиці 1",
			citedAs: table1.Source,
		}, formWarning)
	}

	appendix, err := e.catalog.DomesticLimit(keys, entities.TierAppendix)
	if err != nil {
		return verifyManuallyVerdict(r.CleanName)
	}
	if appendix != nil && appendix.Value != nil &&
		(appendix.Category == "" || appendix.Category == entities.CategoryVitaminMineral) {
		return e.tierVerdict(r, tierContext{
			value:   *appendix.Value,
			unit:    appendix.Unit,
			level:   LevelAppendix,
			source:  "appendix",
			message: "Дозування перевищує норму Додатка",
			citedAs: appendix.Source,
		}, formWarning)
	}

	if formWarning != nil {
		return *formWarning
	}
	return Verdict{
		Ingredient: r.CleanName,
		Status:     StatusOK,
		Category:   entities.CategoryVitaminMineral,
		Note:       "Дозволена речовина, числового ліміту не знайдено",
	}
}

func (e *Evaluator) checkAminoAcid(r mapper.ResolvedIngredient) Verdict {
	row, err := e.catalog.FindAminoAcid(lookupKeys(r))
	if err != nil {
		return verifyManuallyVerdict(r.CleanName)
	}
	if row == nil {
		return e.notFoundVerdict(r, entities.CategoryAminoAcid)
	}
	if r.ElementalQuantity == nil {
		return quantityMissingVerdict(r, entities.CategoryAminoAcid)
	}
	if row.MaxDailyDose == nil {
		return Verdict{
			Ingredient: r.CleanName,
			Status:     StatusOK,
			Category:   entities.CategoryAminoAcid,
			Note:       "Дозволена амінокислота без числового ліміту",
		}
	}

	v := tierContext{
		value:   *row.MaxDailyDose,
		unit:    row.Unit,
		level:   LevelTable1,
		source:  "amino_acids_table",
		message: "Дозування амінокислоти перевищує максимальну добову норму",
		citedAs: row.RegulatorySource,
	}
	verdict := e.tierVerdict(r, v, nil)
	verdict.Category = entities.CategoryAminoAcid
	return verdict
}

func (e *Evaluator) checkPlant(r mapper.ResolvedIngredient) Verdict {
	plant, err := e.catalog.FindPlant(normalizer.PlantStem(r.CleanName))
	if err != nil {
		return verifyManuallyVerdict(r.CleanName)
	}
	if plant == nil {
		return Verdict{
			Ingredient: r.CleanName,
			Status:     StatusWarning,
			Category:   entities.CategoryPlant,
			Message:    "Рослина не знайдена в переліку дозволених",
			Recommendation: "Переконайтесь що рослина дозволена для використання в дієтичних добавках. " +
				"Відсутність у переліку потребує ручної перевірки, а не означає заборону.",
		}
	}
	// Dose is never checked for plants, membership is the whole verdict.
	return Verdict{
		Ingredient: r.CleanName,
		Status:     StatusOK,
		Category:   entities.CategoryPlant,
		Note:       fmt.Sprintf("Дозволена рослина: %s (%s)", plant.CommonNameUA, plant.BotanicalNameLat),
	}
}

func (e *Evaluator) checkMicroorganism(r mapper.ResolvedIngredient) Verdict {
	tokens := strings.Fields(r.CleanName)
	if len(tokens) < 2 {
		return Verdict{
			Ingredient:     r.CleanName,
			Status:         StatusWarning,
			Category:       entities.CategoryMicroorganism,
			Message:        "Назва штаму неповна",
			Recommendation: "Вкажіть рід та вид мікроорганізму, наприклад 'Lactobacillus acidophilus'.",
		}
	}

	row, err := e.catalog.FindMicroorganism(tokens[0], tokens[1])
	if err != nil {
		return verifyManuallyVerdict(r.CleanName)
	}
	if row == nil {
		return Verdict{
			Ingredient:     r.CleanName,
			Status:         StatusWarning,
			Category:       entities.CategoryMicroorganism,
			Message:        "Мікроорганізм не знайдений в переліку дозволених",
			Recommendation: "Переконайтесь що штам дозволений для використання в дієтичних добавках.",
		}
	}
	// CFU counts are not regulated, only membership matters.
	return Verdict{
		Ingredient: r.CleanName,
		Status:     StatusOK,
		Category:   entities.CategoryMicroorganism,
		Note:       fmt.Sprintf("Дозволений мікроорганізм: %s %s", row.Genus, row.Species),
	}
}

func (e *Evaluator) checkDoseLimited(r mapper.ResolvedIngredient, category entities.Category, sourceTable string) Verdict {
	row, err := e.catalog.FindDoseLimited(category, lookupKeys(r))
	if err != nil {
		return verifyManuallyVerdict(r.CleanName)
	}
	if row == nil {
		return e.notFoundVerdict(r, category)
	}
	if r.ElementalQuantity == nil {
		return quantityMissingVerdict(r, category)
	}
	if row.MaxDailyDose == nil {
		return Verdict{
			Ingredient: r.CleanName,
			Status:     StatusOK,
			Category:   category,
			Note:       "Дозволена речовина без числового ліміту",
		}
	}

	verdict := e.tierVerdict(r, tierContext{
		value:   *row.MaxDailyDose,
		unit:    row.Unit,
		level:   LevelAppendix,
		source:  sourceTable,
		message: "Дозування перевищує максимальну добову норму",
		citedAs: row.RegulatorySource,
	}, nil)
	verdict.Category = category
	return verdict
}

func (e *Evaluator) checkUnknown(r mapper.ResolvedIngredient) Verdict {
	return Verdict{
		Ingredient: r.CleanName,
		Status:     StatusWarning,
		Category:   entities.CategoryUnknown,
		Level:      LevelAppendix,
		Message:    "Речовина не знайдена в базі дозволених речовин",
		Recommendation: fmt.Sprintf(
			"Переконайтесь що '%s' є дозволеною речовиною згідно %s. "+
				"Можливо назва вказана неправильно або речовина не дозволена для використання в дієтичних добавках.",
			r.CleanName, defaultRegulatorySource),
	}
}

// tierContext carries one applicable limit tier into the comparison.
type tierContext struct {
	value   float64
	unit    string
	level   int
	source  string
	message string
	citedAs string
}

// tierVerdict compares the elemental quantity against the tier's ceiling,
// with both sides normalized to milligrams. An exceeded limit outranks a
// pending form warning; an unrecognized unit downgrades the comparison to an
// explicit warning instead of trusting the lenient 1.0 factor silently.
func (e *Evaluator) tierVerdict(r mapper.ResolvedIngredient, tier tierContext, formWarning *Verdict) Verdict {
	valueMg, valueKnown := toMilligrams(*r.ElementalQuantity, r.Unit)
	limitMg, limitKnown := toMilligrams(tier.value, tier.unit)

	current := doseString(r.ElementalQuantity, r.Unit)
	max := doseString(&tier.value, tier.unit)
	citation := tier.citedAs
	if citation == "" {
		citation = defaultRegulatorySource
	}

	if valueMg > limitMg {
		return Verdict{
			Ingredient:       r.CleanName,
			Status:           StatusError,
			Category:         entities.CategoryVitaminMineral,
			Level:            tier.level,
			Source:           tier.source,
			Message:          tier.message,
			CurrentDose:      current,
			MaxAllowed:       max,
			RegulatorySource: citation,
			Recommendation:   fmt.Sprintf("Зменшіть дозування до %s або нижче.", max),
			PenaltyAmount:    PenaltyDosage,
		}
	}

	if !valueKnown || !limitKnown {
		return Verdict{
			Ingredient:     r.CleanName,
			Status:         StatusWarning,
			Category:       entities.CategoryVitaminMineral,
			Level:          tier.level,
			Source:         tier.source,
			Message:        "Невідома одиниця виміру, порівняння з лімітом може бути неточним",
			CurrentDose:    current,
			MaxAllowed:     max,
			Recommendation: "Вкажіть кількість у стандартних одиницях (мг, мкг, г).",
		}
	}

	if formWarning != nil {
		return *formWarning
	}
	return Verdict{
		Ingredient:  r.CleanName,
		Status:      StatusOK,
		Category:    entities.CategoryVitaminMineral,
		CurrentDose: current,
		MaxAllowed:  max,
	}
}

func (e *Evaluator) notFoundVerdict(r mapper.ResolvedIngredient, category entities.Category) Verdict {
	verdict := e.checkUnknown(r)
	verdict.Category = category
	return verdict
}

func quantityMissingVerdict(r mapper.ResolvedIngredient, category entities.Category) Verdict {
	return Verdict{
		Ingredient:     r.CleanName,
		Status:         StatusWarning,
		Category:       category,
		Message:        "Не вказано кількість речовини",
		Recommendation: fmt.Sprintf("Вкажіть кількість '%s' на добову порцію.", r.CleanName),
	}
}

func verifyManuallyVerdict(name string) Verdict {
	return Verdict{
		Ingredient:     name,
		Status:         StatusWarning,
		Category:       entities.CategoryUnknown,
		Message:        "Не вдалося перевірити речовину",
		Recommendation: "Перевірте речовину вручну.",
	}
}

// lookupKeys merges the match keys of the base substance and the cleaned
// name, deduplicated in order.
func lookupKeys(r mapper.ResolvedIngredient) []string {
	keys := normalizer.MatchKeys(r.BaseSubstance)
	if r.CleanName != r.BaseSubstance {
		keys = append(keys, normalizer.MatchKeys(r.CleanName)...)
	}

	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, key := range keys {
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

func formAllowed(form string, allowed []string) bool {
	form = strings.ToLower(strings.TrimSpace(form))
	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		if candidate == form || strings.Contains(candidate, form) || strings.Contains(form, candidate) {
			return true
		}
	}
	return false
}

func doseString(value *float64, unit string) string {
	if value == nil {
		return ""
	}
	s := strconv.FormatFloat(*value, 'f', -1, 64)
	if unit == "" {
		return s
	}
	return s + " " + unit
}
