package entity

// Status is the pipeline stage of a material order. Orders advance through
// the five stages one step at a time and never move backwards.
type Status string

const (
	StatusPending   Status = "pending"
	StatusQuoting   Status = "quoting"
	StatusPurchased Status = "purchased"
	StatusShipping  Status = "shipping"
	StatusDelivered Status = "delivered"
)

// statusOrder is the single canonical transition table. Step numbers and the
// next-status mapping are both derived from it so they cannot drift apart.
var statusOrder = []Status{
	StatusPending,
	StatusQuoting,
	StatusPurchased,
	StatusShipping,
	StatusDelivered,
}

var statusLabels = map[Status]string{
	StatusPending:   "Pendente",
	StatusQuoting:   "Em Cotação",
	StatusPurchased: "Comprado",
	StatusShipping:  "Saiu para Entrega",
	StatusDelivered: "Entregue/Recebido",
}

// Valid reports whether s is one of the five pipeline stages.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Terminal reports whether the order can no longer advance.
func (s Status) Terminal() bool {
	return s == StatusDelivered
}

// Next returns the following pipeline stage and false when s is terminal
// or unknown.
func (s Status) Next() (Status, bool) {
	for i, st := range statusOrder {
		if st == s && i < len(statusOrder)-1 {
			return statusOrder[i+1], true
		}
	}
	return s, false
}

// Step returns the 1-based position of s in the pipeline, used for
// progress rendering. Unknown statuses map to step 1.
func (s Status) Step() int {
	for i, st := range statusOrder {
		if st == s {
			return i + 1
		}
	}
	return 1
}

// Label returns the display label shared by every consumer.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return statusLabels[StatusPending]
}

// Urgency classifies how pressing an order is.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

var urgencyLabels = map[Urgency]string{
	UrgencyLow:    "Baixa",
	UrgencyNormal: "Normal",
	UrgencyHigh:   "Alta",
}

// Valid reports whether u is a known urgency level.
func (u Urgency) Valid() bool {
	_, ok := urgencyLabels[u]
	return ok
}

// Label returns the display label for u.
func (u Urgency) Label() string {
	if l, ok := urgencyLabels[u]; ok {
		return l
	}
	return urgencyLabels[UrgencyNormal]
}

// Role is the approved function of a user account. Accounts start without a
// role and receive exactly one via manager approval.
type Role string

const (
	RoleEngineer Role = "engineer"
	RoleManager  Role = "manager"
)

// Valid reports whether r is an assignable role.
func (r Role) Valid() bool {
	return r == RoleEngineer || r == RoleManager
}

// CostCenters is the fixed list of organizational locations an order can be
// billed against.
var CostCenters = []string{
	"Fazenda JFI",
	"Sítio 2 Meninos",
	"Casa Felipe",
	"Casa Irineia",
	"Fazenda Palmeiras",
	"Fazenda Novo Horizonte",
	"Sítio Vale",
	"Quinta do Faia",
	"Sítio Varginha",
}

// ValidCostCenter reports whether name is one of the enumerated cost centers.
func ValidCostCenter(name string) bool {
	for _, cc := range CostCenters {
		if cc == name {
			return true
		}
	}
	return false
}
