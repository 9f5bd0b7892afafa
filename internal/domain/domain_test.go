package domain

import (
	"errors"
	"testing"
)

func TestParseTier(t *testing.T) {
	for _, name := range []string{"bronze", "silver", "gold", "platinum", "reference"} {
		tier, err := ParseTier(name)
		if err != nil {
			t.Fatalf("ParseTier(%q) err=%v", name, err)
		}
		if tier.String() != name {
			t.Fatalf("ParseTier(%q)=%q", name, tier)
		}
	}
	if _, err := ParseTier("diamond"); err == nil {
		t.Fatal("ParseTier accepted unknown tier")
	}
}

func TestTierOrderIsFixed(t *testing.T) {
	want := []Tier{TierBronze, TierSilver, TierGold, TierPlatinum, TierReference}
	if len(TierOrder) != len(want) {
		t.Fatalf("TierOrder has %d tiers, want %d", len(TierOrder), len(want))
	}
	for i := range want {
		if TierOrder[i] != want[i] {
			t.Fatalf("TierOrder[%d]=%q, want %q", i, TierOrder[i], want[i])
		}
	}
}

func TestParseRasterDataset(t *testing.T) {
	ds, err := ParseRasterDataset("sentinel-2")
	if err != nil {
		t.Fatalf("ParseRasterDataset err=%v", err)
	}
	if ds.Extension() != ".tif" {
		t.Fatalf("Extension()=%q", ds.Extension())
	}
	if ds.SidecarSuffix() != "" {
		t.Fatalf("sentinel-2 SidecarSuffix()=%q, want none", ds.SidecarSuffix())
	}

	landsat, err := ParseRasterDataset("landsat")
	if err != nil {
		t.Fatalf("ParseRasterDataset err=%v", err)
	}
	if landsat.SidecarSuffix() != ".json" {
		t.Fatalf("landsat SidecarSuffix()=%q, want .json", landsat.SidecarSuffix())
	}

	if _, err := ParseRasterDataset("modis"); err == nil {
		t.Fatal("ParseRasterDataset accepted unknown dataset")
	}
}

func TestParseHDFDataset(t *testing.T) {
	ds, err := ParseHDFDataset("icesat-2")
	if err != nil {
		t.Fatalf("ParseHDFDataset err=%v", err)
	}
	if ds.Extension() != ".h5" {
		t.Fatalf("Extension()=%q", ds.Extension())
	}
	if _, err := ParseHDFDataset("gedi"); err == nil {
		t.Fatal("ParseHDFDataset accepted unknown dataset")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk gone")

	var err error = &IndexBuildError{Path: "a.tif", Detail: "read footprint", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("IndexBuildError does not unwrap its cause")
	}

	err = &CopyError{Source: "a", Dest: "b", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("CopyError does not unwrap its cause")
	}

	err = &PostProcessError{Path: "c.parquet", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("PostProcessError does not unwrap its cause")
	}
}
