// internal/domain/entity/flight.go
package entity

import (
	"time"
)

// FlightCategory is the loyalty tier a passenger travels under
type FlightCategory string

const (
	CategoryBlack    FlightCategory = "Black"
	CategoryPlatinum FlightCategory = "Platinum"
	CategoryGold     FlightCategory = "Gold"
	CategoryNormal   FlightCategory = "Normal"
)

// FlightCategories lists every accepted category, in tier order
var FlightCategories = []FlightCategory{
	CategoryBlack,
	CategoryPlatinum,
	CategoryGold,
	CategoryNormal,
}

// Valid reports whether c is one of FlightCategories
func (c FlightCategory) Valid() bool {
	for _, known := range FlightCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Passenger is embedded in a flight and has no lifecycle of its own
type Passenger struct {
	ID                int            `bson:"id" json:"id"`
	Name              string         `bson:"name" json:"name"`
	HasConnections    bool           `bson:"hasConnections" json:"hasConnections"`
	Age               int            `bson:"age" json:"age"`
	FlightCategory    FlightCategory `bson:"flightCategory" json:"flightCategory"`
	ReservationID     string         `bson:"reservationId" json:"reservationId"`
	HasCheckedBaggage bool           `bson:"hasCheckedBaggage" json:"hasCheckedBaggage"`
}

// Flight is the top-level resource, keyed by FlightCode
type Flight struct {
	ID         string      `bson:"_id,omitempty" json:"id"`
	FlightCode string      `bson:"flightCode" json:"flightCode"` // unique index
	Passengers []Passenger `bson:"passengers" json:"passengers"`
	CreatedAt  time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// FlightUpdate holds the fields of a partial update. Nil fields keep their stored value.
type FlightUpdate struct {
	FlightCode *string
	Passengers *[]Passenger
}
