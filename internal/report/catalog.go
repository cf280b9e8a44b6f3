package report

import (
	"fmt"

	"github.com/couchcryptid/bird-observation-etl/internal/domain"
)

// Category groups related reports.
type Category string

const (
	CategoryOverall      Category = "overall"
	CategoryTemporal     Category = "temporal"
	CategorySpatial      Category = "spatial"
	CategorySpecies      Category = "species"
	CategorySex          Category = "sex"
	CategoryEnvironment  Category = "environment"
	CategoryDistance     Category = "distance"
	CategoryObservers    Category = "observers"
	CategoryConservation Category = "conservation"
	CategorySpeciesView  Category = "species_detail"
)

// Definition is one catalog entry.
type Definition struct {
	Name            string   `json:"name"`
	Category        Category `json:"category"`
	Title           string   `json:"title"`
	RequiresSpecies bool     `json:"requires_species,omitempty"`
	Ranked          bool     `json:"ranked,omitempty"` // honors Request.Limit

	build func(b *builder) string
}

// Catalog returns every report in display order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a report by name.
func Lookup(name string) (Definition, bool) {
	d, ok := byName[name]
	return d, ok
}

var byName = func() map[string]Definition {
	m := make(map[string]Definition, len(catalog))
	for _, d := range catalog {
		m[d.Name] = d
	}
	return m
}()

// countBy is the common "value, observations" shape ordered by frequency.
func countBy(column string) func(b *builder) string {
	return func(b *builder) string {
		col := b.c(column)
		return fmt.Sprintf(`SELECT %s, COUNT(*) AS observations %s %s GROUP BY %s ORDER BY observations DESC, %s`,
			col, b.from(), b.where(), col, col)
	}
}

// yesNoBy counts observations and species split by a boolean flag.
func yesNoBy(column, label string) func(b *builder) string {
	return func(b *builder) string {
		return fmt.Sprintf(`SELECT %s AS %s, COUNT(*) AS observations, COUNT(DISTINCT %s) AS unique_species %s %s GROUP BY 1 ORDER BY 1`,
			b.yesNo(column), label, b.c(domain.ColCommonName), b.from(), b.where())
	}
}

// bins groups a numeric column into fixed-width buckets labelled by their lower bound.
func bins(column string, width int) func(b *builder) string {
	return func(b *builder) string {
		col := b.c(column)
		lower := fmt.Sprintf("%s * %d", b.d.Floor(fmt.Sprintf("(%s / %d.0)", col, width)), width)
		return fmt.Sprintf(`SELECT %s AS bin_start, COUNT(*) AS observations %s %s GROUP BY 1 ORDER BY 1`,
			lower, b.from(), b.where(col+" IS NOT NULL"))
	}
}

func distanceBy(speciesOnly bool) func(b *builder) string {
	return func(b *builder) string {
		where := b.where()
		if speciesOnly {
			where = b.whereSpecies()
		}
		col := b.c(domain.ColDistance)
		return fmt.Sprintf(`SELECT %s, COUNT(*) AS observations %s %s GROUP BY %s ORDER BY %s, %s`,
			col, b.from(), where, col, b.distanceOrder(), col)
	}
}

func speciesCountBy(column string) func(b *builder) string {
	return func(b *builder) string {
		col := b.c(column)
		return fmt.Sprintf(`SELECT %s, COUNT(*) AS observations %s %s GROUP BY %s ORDER BY observations DESC, %s`,
			col, b.from(), b.whereSpecies(), col, col)
	}
}

var catalog = []Definition{
	{
		Name: "overview", Category: CategoryOverall, Title: "Dataset overview",
		build: func(b *builder) string {
			return fmt.Sprintf(`SELECT COUNT(*) AS total_observations,
	COUNT(DISTINCT %s) AS unique_species,
	COUNT(DISTINCT %s) AS unique_sites,
	COUNT(DISTINCT %s) AS unique_observers,
	AVG(%s) AS avg_temperature,
	MIN(%s) AS first_date,
	MAX(%s) AS last_date,
	COUNT(%s) AS dated_observations
%s %s`,
				b.c(domain.ColCommonName), b.c(domain.ColSiteName), b.c(domain.ColObserver),
				b.c(domain.ColTemperature), b.c(domain.ColDate), b.c(domain.ColDate), b.c(domain.ColDate),
				b.from(), b.where())
		},
	},

	{
		Name: "observations_by_year", Category: CategoryTemporal, Title: "Observations per year",
		build: func(b *builder) string {
			col := b.c(domain.ColYear)
			return fmt.Sprintf(`SELECT %s AS year, COUNT(*) AS observations %s %s GROUP BY %s ORDER BY %s`,
				col, b.from(), b.where(col+" IS NOT NULL"), col, col)
		},
	},
	{
		Name: "observations_by_month", Category: CategoryTemporal, Title: "Observations per calendar month",
		build: func(b *builder) string {
			date := b.c(domain.ColDate)
			return fmt.Sprintf(`SELECT %s AS month, COUNT(*) AS observations %s %s GROUP BY 1 ORDER BY 1`,
				b.d.Month(date), b.from(), b.where(date+" IS NOT NULL"))
		},
	},
	{
		Name: "observations_by_hour", Category: CategoryTemporal, Title: "Observations per start hour",
		build: func(b *builder) string {
			start := b.c(domain.ColStartTime)
			return fmt.Sprintf(`SELECT %s AS hour, COUNT(*) AS observations %s %s GROUP BY 1 ORDER BY 1`,
				b.d.Hour(start), b.from(), b.where(start+" IS NOT NULL"))
		},
	},
	{
		Name: "year_month_heatmap", Category: CategoryTemporal, Title: "Observations by year and month",
		build: func(b *builder) string {
			date := b.c(domain.ColDate)
			return fmt.Sprintf(`SELECT %s AS year, %s AS month, COUNT(*) AS observations %s %s GROUP BY 1, 2 ORDER BY 1, 2`,
				b.d.Year(date), b.d.Month(date), b.from(), b.where(date+" IS NOT NULL"))
		},
	},

	{
		Name: "species_by_location_type", Category: CategorySpatial, Title: "Species diversity by habitat",
		build: func(b *builder) string {
			loc := b.c(domain.ColLocationType)
			return fmt.Sprintf(`SELECT %s, COUNT(DISTINCT %s) AS unique_species, COUNT(*) AS observations %s %s GROUP BY %s ORDER BY %s`,
				loc, b.c(domain.ColCommonName), b.from(), b.where(), loc, loc)
		},
	},
	{
		Name: "observations_by_admin_unit", Category: CategorySpatial, Title: "Observations by administrative unit",
		build: func(b *builder) string {
			unit, loc := b.c(domain.ColAdminUnitCode), b.c(domain.ColLocationType)
			return fmt.Sprintf(`SELECT %s, %s, COUNT(*) AS observations, COUNT(DISTINCT %s) AS unique_species %s %s GROUP BY %s, %s ORDER BY observations DESC, %s, %s`,
				unit, loc, b.c(domain.ColCommonName), b.from(), b.where(), unit, loc, unit, loc)
		},
	},
	{
		Name: "observations_by_site", Category: CategorySpatial, Title: "Most active sites", Ranked: true,
		build: func(b *builder) string {
			site, unit := b.c(domain.ColSiteName), b.c(domain.ColAdminUnitCode)
			return fmt.Sprintf(`SELECT %s, %s, COUNT(*) AS observations, COUNT(DISTINCT %s) AS unique_species %s %s GROUP BY %s, %s ORDER BY observations DESC, %s, %s %s`,
				site, unit, b.c(domain.ColCommonName), b.from(), b.where(), site, unit, site, unit, b.limit())
		},
	},
	{
		Name: "top_plots_by_species", Category: CategorySpatial, Title: "Plots with the most species", Ranked: true,
		build: func(b *builder) string {
			plot, unit := b.c(domain.ColPlotName), b.c(domain.ColAdminUnitCode)
			return fmt.Sprintf(`SELECT %s, %s, COUNT(DISTINCT %s) AS unique_species, COUNT(*) AS observations %s %s GROUP BY %s, %s ORDER BY unique_species DESC, %s, %s %s`,
				plot, unit, b.c(domain.ColCommonName), b.from(), b.where(), plot, unit, plot, unit, b.limit())
		},
	},

	{
		Name: "top_species", Category: CategorySpecies, Title: "Most observed species", Ranked: true,
		build: func(b *builder) string {
			common, sci := b.c(domain.ColCommonName), b.c(domain.ColScientificName)
			return fmt.Sprintf(`SELECT %s, %s, COUNT(*) AS observations %s %s GROUP BY %s, %s ORDER BY observations DESC, %s %s`,
				common, sci, b.from(), b.where(), common, sci, common, b.limit())
		},
	},
	{
		Name: "id_method_distribution", Category: CategorySpecies, Title: "Identification methods",
		build: countBy(domain.ColIDMethod),
	},

	{
		Name: "sex_ratio", Category: CategorySex, Title: "Sex ratio of determined and undetermined records",
		build: func(b *builder) string {
			sex := b.c(domain.ColSex)
			known := fmt.Sprintf("%s IN (%s)", sex, literalList(string(domain.SexMale), string(domain.SexFemale), string(domain.SexUndetermined)))
			return fmt.Sprintf(`SELECT %s, COUNT(*) AS observations, CAST(100.0 * COUNT(*) / SUM(COUNT(*)) OVER () AS DOUBLE PRECISION) AS percentage %s %s GROUP BY %s ORDER BY observations DESC, %s`,
				sex, b.from(), b.where(known), sex, sex)
		},
	},

	{
		Name: "temperature_summary", Category: CategoryEnvironment, Title: "Temperature range by habitat",
		build: func(b *builder) string {
			loc, temp := b.c(domain.ColLocationType), b.c(domain.ColTemperature)
			return fmt.Sprintf(`SELECT %s, MIN(%s) AS min_temperature, MAX(%s) AS max_temperature, AVG(%s) AS avg_temperature, COUNT(%s) AS measured %s %s GROUP BY %s ORDER BY %s`,
				loc, temp, temp, temp, temp, b.from(), b.where(), loc, loc)
		},
	},
	{
		Name: "temperature_bins", Category: CategoryEnvironment, Title: "Observations by temperature (5 degree bins)",
		build: bins(domain.ColTemperature, 5),
	},
	{
		Name: "humidity_bins", Category: CategoryEnvironment, Title: "Observations by humidity (10 point bins)",
		build: bins(domain.ColHumidity, 10),
	},
	{
		Name: "sky_conditions", Category: CategoryEnvironment, Title: "Sky conditions",
		build: countBy(domain.ColSky),
	},
	{
		Name: "wind_conditions", Category: CategoryEnvironment, Title: "Wind conditions",
		build: countBy(domain.ColWind),
	},
	{
		Name: "disturbance_effect", Category: CategoryEnvironment, Title: "Disturbance effect on counts",
		build: func(b *builder) string {
			dist := b.c(domain.ColDisturbance)
			return fmt.Sprintf(`SELECT %s, COUNT(*) AS observations, COUNT(DISTINCT %s) AS unique_species %s %s GROUP BY %s ORDER BY observations DESC, %s`,
				dist, b.c(domain.ColCommonName), b.from(), b.where(), dist, dist)
		},
	},

	{
		Name: "distance_distribution", Category: CategoryDistance, Title: "Distance from observer",
		build: distanceBy(false),
	},
	{
		Name: "flyover_distribution", Category: CategoryDistance, Title: "Flyover observations",
		build: yesNoBy(domain.ColFlyover, "flyover"),
	},

	{
		Name: "top_observers", Category: CategoryObservers, Title: "Most active observers", Ranked: true,
		build: func(b *builder) string {
			obs := b.c(domain.ColObserver)
			return fmt.Sprintf(`SELECT %s, COUNT(*) AS observations, COUNT(DISTINCT %s) AS unique_species %s %s GROUP BY %s ORDER BY observations DESC, %s %s`,
				obs, b.c(domain.ColCommonName), b.from(), b.where(), obs, obs, b.limit())
		},
	},
	{
		Name: "observer_unique_species", Category: CategoryObservers, Title: "Species recorded per observer", Ranked: true,
		build: func(b *builder) string {
			obs := b.c(domain.ColObserver)
			return fmt.Sprintf(`SELECT %s, COUNT(DISTINCT %s) AS unique_species %s %s GROUP BY %s ORDER BY unique_species DESC, %s %s`,
				obs, b.c(domain.ColCommonName), b.from(), b.where(), obs, obs, b.limit())
		},
	},
	{
		Name: "visit_patterns", Category: CategoryObservers, Title: "Observations by visit number",
		build: func(b *builder) string {
			visit := b.c(domain.ColVisit)
			return fmt.Sprintf(`SELECT %s, COUNT(*) AS observations, COUNT(DISTINCT %s) AS unique_species %s %s GROUP BY %s ORDER BY %s`,
				visit, b.c(domain.ColCommonName), b.from(), b.where(), visit, visit)
		},
	},

	{
		Name: "pif_watchlist", Category: CategoryConservation, Title: "PIF watchlist observations",
		build: yesNoBy(domain.ColPIFWatchlist, "pif_watchlist"),
	},
	{
		Name: "regional_stewardship", Category: CategoryConservation, Title: "Regional stewardship observations",
		build: yesNoBy(domain.ColRegionalStewardship, "regional_stewardship"),
	},
	{
		Name: "at_risk_species", Category: CategoryConservation, Title: "Species on the watchlist or of stewardship concern", Ranked: true,
		build: func(b *builder) string {
			common, sci := b.c(domain.ColCommonName), b.c(domain.ColScientificName)
			pif, stew := b.c(domain.ColPIFWatchlist), b.c(domain.ColRegionalStewardship)
			return fmt.Sprintf(`SELECT %s, %s, %s AS pif_watchlist, %s AS regional_stewardship, COUNT(*) AS observations %s %s GROUP BY 1, 2, 3, 4 ORDER BY observations DESC, %s %s`,
				common, sci, b.yesNo(domain.ColPIFWatchlist), b.yesNo(domain.ColRegionalStewardship),
				b.from(), b.where(pif+" OR "+stew), common, b.limit())
		},
	},

	{
		Name: "species_sex", Category: CategorySpeciesView, Title: "Sex breakdown for one species", RequiresSpecies: true,
		build: speciesCountBy(domain.ColSex),
	},
	{
		Name: "species_id_method", Category: CategorySpeciesView, Title: "Identification methods for one species", RequiresSpecies: true,
		build: speciesCountBy(domain.ColIDMethod),
	},
	{
		Name: "species_distance", Category: CategorySpeciesView, Title: "Distance from observer for one species", RequiresSpecies: true,
		build: distanceBy(true),
	},
}
