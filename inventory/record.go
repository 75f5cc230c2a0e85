package inventory

import (
	"encoding/json"
	"fmt"
)

// DefaultActiveStatus is the sheet's "currently listed" marker.
const DefaultActiveStatus = "판매중"

// Recognized header names.
const (
	FieldID                = "id"
	FieldName              = "name"
	FieldPrice             = "price"
	FieldYear              = "year"
	FieldMileage           = "mileage"
	FieldFuelType          = "fuelType"
	FieldCarType           = "carType"
	FieldStatus            = "status"
	FieldMainImage         = "mainImage"
	FieldImages            = "images"
	FieldDescription       = "description"
	FieldTransmission      = "transmission"
	FieldDisplacement      = "displacement"
	FieldColor             = "color"
	FieldPassengers        = "passengers"
	FieldReleaseDate       = "releaseDate"
	FieldRegisteredDate    = "registeredDate"
	FieldPerformanceReport = "performanceReport"
)

var numericFields = map[string]bool{
	FieldID:      true,
	FieldPrice:   true,
	FieldYear:    true,
	FieldMileage: true,
}

var knownFields = map[string]bool{
	FieldID: true, FieldName: true, FieldPrice: true, FieldYear: true, FieldMileage: true,
	FieldFuelType: true, FieldCarType: true, FieldStatus: true, FieldMainImage: true,
	FieldImages: true, FieldDescription: true, FieldTransmission: true,
	FieldDisplacement: true, FieldColor: true, FieldPassengers: true,
	FieldReleaseDate: true, FieldRegisteredDate: true, FieldPerformanceReport: true,
}

// Record is one listed vehicle from the inventory sheet.
type Record struct {
	ID                int      `json:"id"`
	Name              string   `json:"name"`
	Price             int      `json:"price"`
	Year              int      `json:"year"`
	Mileage           int      `json:"mileage"`
	FuelType          string   `json:"fuelType"`
	CarType           string   `json:"carType"`
	Status            string   `json:"status"`
	MainImage         string   `json:"mainImage"`
	Images            []string `json:"images"`
	Description       string   `json:"description,omitempty"`
	Transmission      string   `json:"transmission,omitempty"`
	Displacement      string   `json:"displacement,omitempty"`
	Color             string   `json:"color,omitempty"`
	Passengers        string   `json:"passengers,omitempty"`
	ReleaseDate       string   `json:"releaseDate,omitempty"`
	RegisteredDate    string   `json:"registeredDate,omitempty"`
	PerformanceReport string   `json:"performanceReport,omitempty"`

	// Extra holds columns the sheet carries that have no dedicated field.
	Extra map[string]string `json:"-"`
}

// IsActive reports whether the record is currently listed. A missing status counts as
// listed so older exports without the column keep working.
func (r Record) IsActive(activeStatus string) bool {
	return r.Status == "" || r.Status == activeStatus
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Images = append(make([]string, 0, len(r.Images)), r.Images...)
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

type recordAlias Record

// MarshalJSON flattens Extra next to the named fields so unrecognized columns pass
// through to API consumers.
func (r Record) MarshalJSON() ([]byte, error) {
	alias := recordAlias(r)
	if alias.Images == nil {
		alias.Images = []string{}
	}
	if len(r.Extra) == 0 {
		return json.Marshal(alias)
	}

	b, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, taken := m[k]; !taken {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var alias recordAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if knownFields[k] {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			s = string(v)
		}
		if alias.Extra == nil {
			alias.Extra = make(map[string]string)
		}
		alias.Extra[k] = s
	}

	*r = Record(alias)
	return nil
}

// Fields is one parsed row keyed by header name. Values are int for numeric columns,
// []string for images and string otherwise.
type Fields map[string]any

// RecordFromFields builds a Record from parsed row fields.
func RecordFromFields(f Fields) Record {
	r := Record{Images: []string{}}
	for name, v := range f {
		switch name {
		case FieldID:
			r.ID = asInt(v)
		case FieldPrice:
			r.Price = asInt(v)
		case FieldYear:
			r.Year = asInt(v)
		case FieldMileage:
			r.Mileage = asInt(v)
		case FieldImages:
			if imgs, ok := v.([]string); ok {
				r.Images = append(r.Images, imgs...)
			}
		case FieldName:
			r.Name = asString(v)
		case FieldFuelType:
			r.FuelType = asString(v)
		case FieldCarType:
			r.CarType = asString(v)
		case FieldStatus:
			r.Status = asString(v)
		case FieldMainImage:
			r.MainImage = asString(v)
		case FieldDescription:
			r.Description = asString(v)
		case FieldTransmission:
			r.Transmission = asString(v)
		case FieldDisplacement:
			r.Displacement = asString(v)
		case FieldColor:
			r.Color = asString(v)
		case FieldPassengers:
			r.Passengers = asString(v)
		case FieldReleaseDate:
			r.ReleaseDate = asString(v)
		case FieldRegisteredDate:
			r.RegisteredDate = asString(v)
		case FieldPerformanceReport:
			r.PerformanceReport = asString(v)
		default:
			if r.Extra == nil {
				r.Extra = make(map[string]string)
			}
			r.Extra[name] = asString(v)
		}
	}
	return r
}

// Find returns the record with the given id.
func Find(records []Record, id int) (Record, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

func asInt(v any) int {
	if n, ok := v.(int); ok && n > 0 {
		return n
	}
	return 0
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
