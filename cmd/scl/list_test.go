package main

import (
	"errors"
	"testing"
	"time"

	"github.com/franz/scenelist/internal/proclist"
	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/util"
)

func defaultListOptions() listOptions {
	return listOptions{MaxCC: 100, MaxCCLand: 30, CCLand: true, MinSunEl: 15, Levels: "L1TP"}
}

func TestBuildCriteria(t *testing.T) {
	c, err := buildCriteria(defaultListOptions())
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if !c.UseLandCloud || c.MaxCloud == nil || *c.MaxCloud != 30 {
		t.Errorf("expected land cloud ceiling of 30, got %+v", c)
	}
	if len(c.Levels) != 1 || c.Levels[0] != scene.LevelL1TP {
		t.Errorf("expected L1TP only, got %v", c.Levels)
	}

	o := defaultListOptions()
	o.CCLand = false
	o.Sensor = "etm"
	o.Family = "L47"
	o.StartDate = "2019/12/01"
	o.EndDate = "2020/01/31"
	c, err = buildCriteria(o)
	if err != nil {
		t.Fatal(err)
	}
	if *c.MaxCloud != 100 || c.UseLandCloud {
		t.Errorf("expected full-scene ceiling of 100, got %v", *c.MaxCloud)
	}
	if c.Instrument != "LANDSAT_ETM" {
		t.Errorf("Instrument = %q", c.Instrument)
	}
	if len(c.Families) != 1 || c.Families[0] != scene.FamilyL47 {
		t.Errorf("Families = %v", c.Families)
	}
	lastDay := time.Date(2020, 1, 31, 23, 0, 0, 0, time.UTC)
	if c.AcquiredTo.Before(lastDay) {
		t.Errorf("end date should include the whole day, got %v", c.AcquiredTo)
	}
}

func TestBuildCriteriaErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*listOptions)
	}{
		{"bad start date", func(o *listOptions) { o.StartDate = "01/02/2020" }},
		{"bad end date", func(o *listOptions) { o.EndDate = "2020-01-02" }},
		{"unknown sensor", func(o *listOptions) { o.Sensor = "MSS" }},
		{"unknown family", func(o *listOptions) { o.Family = "L3" }},
		{"unknown levels", func(o *listOptions) { o.Levels = "L2" }},
		{"row without path", func(o *listOptions) { o.Row = 21 }},
		{"half doy range", func(o *listOptions) { o.EndDOY = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultListOptions()
			tt.mutate(&o)
			if _, err := buildCriteria(o); !errors.Is(err, util.ErrInvalidConfig) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestRunItemsOrder(t *testing.T) {
	item := func(id string, mech proclist.Mechanism) proclist.Item {
		sid := scene.MustParse(id)
		return proclist.Item{ID: sid, OutputID: id, Family: sid.Family(), DateKey: sid.DateKey(), Mechanism: mech}
	}
	lists := &proclist.Lists{
		L47: []proclist.Item{item("LE71000212020001EDC00", proclist.MechanismMissing)},
		L8:  []proclist.Item{item("LC81000202020001LGN00", proclist.MechanismNeighbor)},
	}

	items := runItems(lists)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Family != "L47" || items[0].Position != 0 || items[0].Mechanism != "missing" {
		t.Errorf("first item = %+v", items[0])
	}
	if items[1].Family != "L8" || items[1].Position != 1 || items[1].DateKey != "2020001" {
		t.Errorf("second item = %+v", items[1])
	}
}
