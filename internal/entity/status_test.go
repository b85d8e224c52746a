package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusNext(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		expected Status
		ok       bool
	}{
		{name: "pending advances to quoting", status: StatusPending, expected: StatusQuoting, ok: true},
		{name: "quoting advances to purchased", status: StatusQuoting, expected: StatusPurchased, ok: true},
		{name: "purchased advances to shipping", status: StatusPurchased, expected: StatusShipping, ok: true},
		{name: "shipping advances to delivered", status: StatusShipping, expected: StatusDelivered, ok: true},
		{name: "delivered is terminal", status: StatusDelivered, expected: StatusDelivered, ok: false},
		{name: "unknown status cannot advance", status: Status("archived"), expected: Status("archived"), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := tt.status.Next()
			assert.Equal(t, tt.expected, next)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestStatusStepIsStrictlyIncreasing(t *testing.T) {
	prev := StatusPending
	for {
		next, ok := prev.Next()
		if !ok {
			break
		}
		assert.Equal(t, prev.Step()+1, next.Step())
		prev = next
	}
	assert.Equal(t, 1, StatusPending.Step())
	assert.Equal(t, 5, StatusDelivered.Step())
	assert.Equal(t, 1, Status("bogus").Step())
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "Pendente", StatusPending.Label())
	assert.Equal(t, "Em Cotação", StatusQuoting.Label())
	assert.Equal(t, "Comprado", StatusPurchased.Label())
	assert.Equal(t, "Saiu para Entrega", StatusShipping.Label())
	assert.Equal(t, "Entregue/Recebido", StatusDelivered.Label())
	assert.Equal(t, "Pendente", Status("bogus").Label())
}

func TestStatusValidAndTerminal(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusQuoting, StatusPurchased, StatusShipping, StatusDelivered} {
		assert.True(t, s.Valid())
	}
	assert.False(t, Status("archived").Valid())
	assert.True(t, StatusDelivered.Terminal())
	assert.False(t, StatusShipping.Terminal())
}

func TestUrgency(t *testing.T) {
	assert.True(t, UrgencyLow.Valid())
	assert.True(t, UrgencyNormal.Valid())
	assert.True(t, UrgencyHigh.Valid())
	assert.False(t, Urgency("critical").Valid())
	assert.Equal(t, "Alta", UrgencyHigh.Label())
	assert.Equal(t, "Normal", Urgency("critical").Label())
}

func TestValidCostCenter(t *testing.T) {
	for _, cc := range CostCenters {
		assert.True(t, ValidCostCenter(cc))
	}
	assert.False(t, ValidCostCenter("Fazenda Inexistente"))
	assert.False(t, ValidCostCenter(""))
	assert.False(t, ValidCostCenter("fazenda jfi"))
}

func TestOrderClaimable(t *testing.T) {
	manager := "m-1"

	tests := []struct {
		name      string
		order     Order
		claimable bool
	}{
		{name: "pending unclaimed", order: Order{Status: StatusPending}, claimable: true},
		{name: "pending but claimed", order: Order{Status: StatusPending, ResponsibleID: &manager}, claimable: false},
		{name: "already advanced", order: Order{Status: StatusQuoting}, claimable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.claimable, tt.order.Claimable())
		})
	}
}
