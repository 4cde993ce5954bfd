package steps

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"

	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

type flightModeContext struct {
	engineSpeed  int
	selectedMode shared.FlightMode
	selectedOK   bool
}

func (f *flightModeContext) reset() {
	f.engineSpeed = 1
	f.selectedMode = shared.FlightModeCruise
	f.selectedOK = false
}

func (f *flightModeContext) anEngineSpeedOf(speed int) error {
	f.engineSpeed = speed
	return nil
}

func (f *flightModeContext) travelCostsShouldBe(table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		mode, err := shared.ParseFlightMode(cellValue(table, row, "mode"))
		if err != nil {
			return err
		}
		distance, err := strconv.ParseFloat(cellValue(table, row, "distance"), 64)
		if err != nil {
			return err
		}
		wantFuel, err := strconv.Atoi(cellValue(table, row, "fuel"))
		if err != nil {
			return err
		}
		wantSeconds, err := strconv.Atoi(cellValue(table, row, "seconds"))
		if err != nil {
			return err
		}

		if got := shared.FuelCost(mode, distance); got != wantFuel {
			return fmt.Errorf("%s over %.0f: expected %d fuel, got %d", mode, distance, wantFuel, got)
		}
		if got := shared.TravelTime(mode, distance, f.engineSpeed); got != wantSeconds {
			return fmt.Errorf("%s over %.0f: expected %d seconds, got %d", mode, distance, wantSeconds, got)
		}
	}
	return nil
}

func (f *flightModeContext) selectModeFor(distance, fuel, margin int) error {
	selector := shared.NewFlightModeSelector()
	f.selectedMode, f.selectedOK = selector.SelectOptimalMode(float64(distance), fuel, margin, false)
	return nil
}

func (f *flightModeContext) selectedModeShouldBe(want string) error {
	if !f.selectedOK {
		return fmt.Errorf("expected a mode selection, got none")
	}
	if got := f.selectedMode.String(); got != want {
		return fmt.Errorf("expected mode %s, got %s", want, got)
	}
	return nil
}

func cellValue(table *godog.Table, row *messages.PickleTableRow, column string) string {
	for i, header := range table.Rows[0].Cells {
		if header.Value == column {
			return row.Cells[i].Value
		}
	}
	return ""
}

// InitializeFlightModeScenario registers the flight mode cost steps
func InitializeFlightModeScenario(sc *godog.ScenarioContext) {
	f := &flightModeContext{}
	sc.Before(func(ctx context.Context, scenario *godog.Scenario) (context.Context, error) {
		f.reset()
		return ctx, nil
	})

	sc.Step(`^an engine speed of (\d+)$`, f.anEngineSpeedOf)
	sc.Step(`^the travel costs should be:$`, f.travelCostsShouldBe)
	sc.Step(`^I select a mode for distance (\d+) with (\d+) fuel and margin (\d+)$`, f.selectModeFor)
	sc.Step(`^the selected mode should be "([^"]*)"$`, f.selectedModeShouldBe)
}
