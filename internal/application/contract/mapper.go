package contract

import (
	"time"

	"github.com/andrescamacho/fleetd/internal/domain/contract"
	"github.com/andrescamacho/fleetd/internal/domain/ports"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// contractFromData rebuilds the domain contract from an API payload
func contractFromData(data *ports.ContractData, playerID int) *contract.Contract {
	deliveries := make([]contract.Delivery, 0, len(data.Deliveries))
	for _, d := range data.Deliveries {
		deliveries = append(deliveries, contract.Delivery{
			TradeSymbol:       d.TradeSymbol,
			DestinationSymbol: d.DestinationSymbol,
			UnitsRequired:     d.UnitsRequired,
			UnitsFulfilled:    d.UnitsFulfilled,
		})
	}

	deadline, _ := time.Parse(time.RFC3339, data.Deadline)

	return contract.ReconstructContract(
		data.ID,
		shared.MustNewPlayerID(playerID),
		data.FactionSymbol,
		data.Type,
		contract.Payment{OnAccepted: data.PaymentOnAccepted, OnFulfilled: data.PaymentOnFulfilled},
		deliveries,
		deadline,
		data.Accepted,
		data.Fulfilled,
	)
}
