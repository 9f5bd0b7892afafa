// Package directive parses and validates the processing directive that
// configures one staging run. Validation happens entirely up front: a
// directive that names an identifier outside the closed enumerations is
// rejected before any filesystem access.
package directive

import (
	"fmt"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/geostage-labs/geostage-go/internal/domain"
)

// VectorFile declares one vector source inside a tier.
type VectorFile struct {
	Name     string `yaml:"name"`
	Layer    string `yaml:"layer,omitempty"`
	SQLQuery string `yaml:"sql_query,omitempty"`
}

// TabularFile declares one copy-only tabular source (CSV and friends).
type TabularFile struct {
	Name string `yaml:"name"`
}

// ColumnarFile declares one columnar source subject to the post-copy
// date filter.
type ColumnarFile struct {
	Name     string `yaml:"name"`
	SQLQuery string `yaml:"sql_query,omitempty"`
}

// Content is the declared content of one tier.
type Content struct {
	Raster  []domain.RasterDataset
	HDF     []domain.HDFDataset
	Vector  []VectorFile
	Table   []TabularFile
	Parquet []ColumnarFile
}

// Directive is the immutable run configuration. Built once by Parse and
// read-only for the rest of the run.
type Directive struct {
	Date                 time.Time
	RemoteRoot           string
	AOI                  string
	OutputBase           string
	Tiers                map[domain.Tier]Content
	ErrorForMissingFiles bool
}

// Remote reports whether the run reads sources through the remote
// object-store filesystem rather than local paths.
func (d Directive) Remote() bool { return d.RemoteRoot != "" }

// TierRoot maps a tier to its source root. The mapping is exhaustive
// over the closed tier enumeration.
func (d Directive) TierRoot(tier domain.Tier) string {
	switch tier {
	case domain.TierBronze, domain.TierSilver, domain.TierGold, domain.TierPlatinum, domain.TierReference:
		if d.RemoteRoot != "" {
			return path.Join(d.RemoteRoot, tier.String())
		}
		return tier.String()
	}
	return ""
}

type rawContent struct {
	Raster  []string       `yaml:"raster"`
	HDF     []string       `yaml:"hdf"`
	Vector  []VectorFile   `yaml:"vector"`
	Table   []TabularFile  `yaml:"table"`
	Parquet []ColumnarFile `yaml:"parquet"`
}

type rawDirective struct {
	Date                 string                `yaml:"date"`
	RemoteRoot           string                `yaml:"remoteRoot,omitempty"`
	AOI                  string                `yaml:"aoi"`
	OutputBase           string                `yaml:"output_base"`
	Directories          map[string]rawContent `yaml:"directories"`
	ErrorForMissingFiles bool                  `yaml:"error_for_missing_files,omitempty"`
}

type rawDocument struct {
	DataConfig *rawDirective `yaml:"dataConfig"`
}

// Parse decodes and validates a directive document.
func Parse(input []byte) (Directive, error) {
	var doc rawDocument
	if err := yaml.Unmarshal(input, &doc); err != nil {
		return Directive{}, domain.NewConfigurationError("decode directive: %v", err)
	}
	if doc.DataConfig == nil {
		return Directive{}, domain.NewConfigurationError("directive has no dataConfig element")
	}
	raw := doc.DataConfig

	if strings.TrimSpace(raw.Date) == "" {
		return Directive{}, domain.NewConfigurationError("date is required")
	}
	date, err := time.Parse("2006-01-02", raw.Date)
	if err != nil {
		return Directive{}, domain.NewConfigurationError("invalid date %q: %v", raw.Date, err)
	}
	if strings.TrimSpace(raw.AOI) == "" {
		return Directive{}, domain.NewConfigurationError("aoi is required")
	}
	if strings.TrimSpace(raw.OutputBase) == "" {
		return Directive{}, domain.NewConfigurationError("output_base is required")
	}

	tiers := make(map[domain.Tier]Content, len(raw.Directories))
	for name, rawTier := range raw.Directories {
		tier, err := domain.ParseTier(name)
		if err != nil {
			return Directive{}, domain.NewConfigurationError("%v", err)
		}
		content, err := parseContent(tier, rawTier)
		if err != nil {
			return Directive{}, err
		}
		tiers[tier] = content
	}

	return Directive{
		Date:                 date,
		RemoteRoot:           strings.TrimSpace(raw.RemoteRoot),
		AOI:                  raw.AOI,
		OutputBase:           raw.OutputBase,
		Tiers:                tiers,
		ErrorForMissingFiles: raw.ErrorForMissingFiles,
	}, nil
}

func parseContent(tier domain.Tier, raw rawContent) (Content, error) {
	var content Content
	for _, r := range raw.Raster {
		dataset, err := domain.ParseRasterDataset(r)
		if err != nil {
			return Content{}, domain.NewConfigurationError("tier %s: %v", tier, err)
		}
		content.Raster = append(content.Raster, dataset)
	}
	for _, h := range raw.HDF {
		dataset, err := domain.ParseHDFDataset(h)
		if err != nil {
			return Content{}, domain.NewConfigurationError("tier %s: %v", tier, err)
		}
		content.HDF = append(content.HDF, dataset)
	}
	for _, v := range raw.Vector {
		if err := validateVectorFile(tier, v); err != nil {
			return Content{}, err
		}
		content.Vector = append(content.Vector, v)
	}
	for _, t := range raw.Table {
		if strings.TrimSpace(t.Name) == "" {
			return Content{}, domain.NewConfigurationError("tier %s: tabular file name is required", tier)
		}
		content.Table = append(content.Table, t)
	}
	for _, p := range raw.Parquet {
		if strings.TrimSpace(p.Name) == "" {
			return Content{}, domain.NewConfigurationError("tier %s: parquet file name is required", tier)
		}
		if !strings.HasSuffix(p.Name, ".parquet") {
			return Content{}, domain.NewConfigurationError("tier %s: parquet file %q must end with .parquet", tier, p.Name)
		}
		content.Parquet = append(content.Parquet, p)
	}
	return content, nil
}

func validateVectorFile(tier domain.Tier, v VectorFile) error {
	if strings.TrimSpace(v.Name) == "" {
		return domain.NewConfigurationError("tier %s: vector file name is required", tier)
	}
	geojson := strings.HasSuffix(v.Name, ".geojson")
	parquet := strings.HasSuffix(v.Name, ".parquet")
	if !geojson && !parquet {
		return domain.NewConfigurationError(
			"tier %s: vector file %q must end with .geojson or .parquet", tier, v.Name)
	}
	if v.SQLQuery != "" && geojson {
		return domain.NewConfigurationError(
			"tier %s: geojson vector file %q cannot have a sql_query", tier, v.Name)
	}
	if v.Layer != "" && v.SQLQuery != "" {
		return domain.NewConfigurationError(
			"tier %s: vector file %q cannot have both layer and sql_query", tier, v.Name)
	}
	return nil
}

// OrderedTiers returns the tiers declared in the directive in the fixed
// processing order.
func (d Directive) OrderedTiers() []domain.Tier {
	var out []domain.Tier
	for _, tier := range domain.TierOrder {
		if _, ok := d.Tiers[tier]; ok {
			out = append(out, tier)
		}
	}
	return out
}

// DateToken is the 8-digit form of the target date as it appears inside
// archive filenames.
func (d Directive) DateToken() string {
	return d.Date.Format("20060102")
}

func (d Directive) String() string {
	return fmt.Sprintf("directive{date=%s remote=%t tiers=%d}", d.Date.Format("2006-01-02"), d.Remote(), len(d.Tiers))
}
