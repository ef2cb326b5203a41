package intercity

import "encoding/json"

// Station is a directory entry resolved from a station name. The upstream
// uses two distinct identifiers for the same station: the booking id feeds
// connection/route queries and booking links, the schedule id feeds
// composition and seat-diagram queries.
type Station struct {
	Name       string `json:"name"`
	BookingID  string `json:"booking_id"`
	ScheduleID string `json:"schedule_id"`
}

type stationEntry struct {
	Name       string `json:"n"`
	BookingID  string `json:"h"`
	ScheduleID string `json:"e"`
}

// Connection is one direct train between two stations.
type Connection struct {
	DepartureTime string            `json:"dataWyjazdu"`
	ArrivalTime   string            `json:"dataPrzyjazdu"`
	Trains        []ConnectionTrain `json:"pociagi"`
}

type ConnectionTrain struct {
	Name          string `json:"nazwaPociagu"`
	Number        string `json:"nrPociagu"`
	Category      string `json:"kategoriaPociagu"`
	TravelMinutes int    `json:"czasJazdy"`
}

type connectionsResponse struct {
	Connections []Connection `json:"polaczenia"`
}

type connectionsRequest struct {
	DeviceNumber     string   `json:"urzadzenieNr"`
	Method           string   `json:"metoda"`
	DepartureTime    string   `json:"dataWyjazdu"`
	ArrivalTime      string   `json:"dataPrzyjazdu"`
	FromStation      string   `json:"stacjaWyjazdu"`
	ToStation        string   `json:"stacjaPrzyjazdu"`
	ViaStations      []string `json:"stacjePrzez"`
	FastestOnly      int      `json:"polaczeniaNajszybsze"`
	ConnectionCount  int      `json:"liczbaPolaczen"`
	MaxTransferMins  int      `json:"czasNaPrzesiadkeMax"`
	MaxTransfers     int      `json:"liczbaPrzesiadekMax"`
	DirectOnly       int      `json:"polaczeniaBezposrednie"`
	TrainCategories  []string `json:"kategoriePociagow"`
	CarrierCodes     []string `json:"kodyPrzewoznikow"`
	SeatKinds        []string `json:"rodzajeMiejsc"`
	SeatTypes        []string `json:"typyMiejsc"`
	Braille          int      `json:"braille"`
	MinTransferMins  int      `json:"czasNaPrzesiadkeMin"`
}

type routeRequest struct {
	DeviceNumber  string `json:"urzadzenieNr"`
	Method        string `json:"metoda"`
	DepartureTime string `json:"dataWyjazdu"`
	FromStation   string `json:"stacjaWyjazdu"`
	ToStation     string `json:"stacjaPrzyjazdu"`
	TrainNumber   string `json:"numerPociagu"`
}

type routeResponse struct {
	Route struct {
		Stops []routeStop `json:"trasaPrzejazdu"`
	} `json:"trasePrzejezdu"`
}

type routeStop struct {
	Name      string `json:"nazwaStacji"`
	Position  int    `json:"numerStacji"`
	Arrival   string `json:"dataPrzyjazdu"`
	Departure string `json:"dataWyjazdu"`
}

// RouteStop is one stop of a train's full route, ordered by Position.
// Arrival is empty for the first stop and Departure for the last;
// timestamps use the "2006-01-02 15:04:05" domain format.
type RouteStop struct {
	Name      string `json:"name"`
	Position  int    `json:"position"`
	Arrival   string `json:"arrival,omitempty"`
	Departure string `json:"departure,omitempty"`
}

// Composition describes the carriages a train runs with on one segment.
// A StatusCode of 404 inside an otherwise successful response means the
// train does not offer that segment at all.
type Composition struct {
	StatusCode    int               `json:"statusCode"`
	SecondClass   []json.Number     `json:"klasa2"`
	CarriageTypes map[string]string `json:"wagonySchemat"`
}

// EligibleCarriages returns carriage number -> carriage type for the
// second-class carriages only; first-class carriages never carry a klasa2
// entry and are dropped here.
func (c *Composition) EligibleCarriages() map[string]string {
	secondClass := make(map[string]bool, len(c.SecondClass))
	for _, number := range c.SecondClass {
		secondClass[number.String()] = true
	}

	eligible := make(map[string]string)
	for number, carriageType := range c.CarriageTypes {
		if secondClass[number] {
			eligible[number] = carriageType
		}
	}
	return eligible
}

// Segment identifies a train's travel between two stops. Times are in the
// compact yyyymmddHHMM form, station ids are schedule ids.
type Segment struct {
	TrainCategory     string
	TrainNumber       string
	DepartureTime     string
	DepartureStationID string
	ArrivalTime       string
	ArrivalStationID  string
}
