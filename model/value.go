package model

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// ValueType is the "@type" discriminator of a typed entity value.
type ValueType string

const (
	ValueAmountOfMoney ValueType = "amountOfMoney"
	ValueDate          ValueType = "date"
	ValueDateInterval  ValueType = "dateInterval"
	ValueDistance      ValueType = "distance"
	ValueDuration      ValueType = "duration"
	ValueEmail         ValueType = "email"
	ValueNumber        ValueType = "number"
	ValueOrdinal       ValueType = "ordinal"
	ValuePhoneNumber   ValueType = "phoneNumber"
	ValueString        ValueType = "string"
	ValueTemperature   ValueType = "temperature"
	ValueURL           ValueType = "url"
	ValueVolume        ValueType = "volume"
)

const valueTypeKey = "@type"

// Value is the closed set of typed entity values.
type Value interface {
	ValueType() ValueType
}

// EntityValue carries one Value and handles the "@type" dispatch.
type EntityValue struct {
	Value Value
}

func NewEntityValue(v Value) *EntityValue {
	return &EntityValue{Value: v}
}

func (v EntityValue) MarshalJSON() ([]byte, error) {
	if v.Value == nil {
		return nil, fmt.Errorf("%w: empty entity value", ErrUnknownValueType)
	}
	return json.Marshal(v.Value)
}

func (v *EntityValue) UnmarshalJSON(data []byte) error {
	var head struct {
		Type ValueType `json:"@type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	decode, ok := valueDecoders[head.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownValueType, head.Type)
	}
	value, err := decode(data)
	if err != nil {
		return fmt.Errorf("decode %s value: %w", head.Type, err)
	}
	v.Value = value
	return nil
}

var valueDecoders = map[ValueType]func([]byte) (Value, error){
	ValueAmountOfMoney: decodeValue[AmountOfMoneyValue],
	ValueDate:          decodeValue[DateEntityValue],
	ValueDateInterval:  decodeValue[DateIntervalEntityValue],
	ValueDistance:      decodeValue[DistanceValue],
	ValueDuration:      decodeValue[DurationValue],
	ValueEmail:         decodeValue[EmailValue],
	ValueNumber:        decodeValue[NumberValue],
	ValueOrdinal:       decodeValue[OrdinalValue],
	ValuePhoneNumber:   decodeValue[PhoneNumberValue],
	ValueString:        decodeValue[StringValue],
	ValueTemperature:   decodeValue[TemperatureValue],
	ValueURL:           decodeValue[URLValue],
	ValueVolume:        decodeValue[VolumeValue],
}

func decodeValue[T Value](data []byte) (Value, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

type AmountOfMoneyValue struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

func (AmountOfMoneyValue) ValueType() ValueType { return ValueAmountOfMoney }

func (v AmountOfMoneyValue) MarshalJSON() ([]byte, error) {
	type plain AmountOfMoneyValue
	return marshalTagged(valueTypeKey, string(ValueAmountOfMoney), plain(v))
}

type DateGrain string

const (
	GrainTimezone  DateGrain = "timezone"
	GrainUnknown   DateGrain = "unknown"
	GrainSecond    DateGrain = "second"
	GrainMinute    DateGrain = "minute"
	GrainHour      DateGrain = "hour"
	GrainDayOfWeek DateGrain = "day_of_week"
	GrainDay       DateGrain = "day"
	GrainWeek      DateGrain = "week"
	GrainMonth     DateGrain = "month"
	GrainQuarter   DateGrain = "quarter"
	GrainYear      DateGrain = "year"
)

type DateEntityValue struct {
	Date  time.Time `json:"date"`
	Grain DateGrain `json:"grain"`
}

func (DateEntityValue) ValueType() ValueType { return ValueDate }

func (v DateEntityValue) MarshalJSON() ([]byte, error) {
	type plain DateEntityValue
	return marshalTagged(valueTypeKey, string(ValueDate), plain(v))
}

type DateIntervalEntityValue struct {
	Date   DateEntityValue `json:"date"`
	ToDate DateEntityValue `json:"toDate"`
}

func (DateIntervalEntityValue) ValueType() ValueType { return ValueDateInterval }

func (v DateIntervalEntityValue) MarshalJSON() ([]byte, error) {
	type plain DateIntervalEntityValue
	return marshalTagged(valueTypeKey, string(ValueDateInterval), plain(v))
}

type DistanceValue struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

func (DistanceValue) ValueType() ValueType { return ValueDistance }

func (v DistanceValue) MarshalJSON() ([]byte, error) {
	type plain DistanceValue
	return marshalTagged(valueTypeKey, string(ValueDistance), plain(v))
}

// DurationValue holds an ISO-8601 duration such as "P1DT2H".
type DurationValue struct {
	Value string `json:"value"`
}

func (DurationValue) ValueType() ValueType { return ValueDuration }

func (v DurationValue) MarshalJSON() ([]byte, error) {
	type plain DurationValue
	return marshalTagged(valueTypeKey, string(ValueDuration), plain(v))
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// Duration parses the week/day/time subset of ISO-8601. Years and months
// have no fixed length and are rejected.
func (v DurationValue) Duration() (time.Duration, error) {
	m := isoDuration.FindStringSubmatch(v.Value)
	if m == nil || v.Value == "P" || v.Value == "PT" {
		return 0, fmt.Errorf("unsupported duration %q", v.Value)
	}
	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var total time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return 0, fmt.Errorf("duration %q: %w", v.Value, err)
		}
		total += time.Duration(n * float64(unit))
	}
	return total, nil
}

type EmailValue struct {
	Value string `json:"value"`
}

func (EmailValue) ValueType() ValueType { return ValueEmail }

func (v EmailValue) MarshalJSON() ([]byte, error) {
	type plain EmailValue
	return marshalTagged(valueTypeKey, string(ValueEmail), plain(v))
}

type NumberValue struct {
	Value float64 `json:"value"`
}

func (NumberValue) ValueType() ValueType { return ValueNumber }

func (v NumberValue) MarshalJSON() ([]byte, error) {
	type plain NumberValue
	return marshalTagged(valueTypeKey, string(ValueNumber), plain(v))
}

type OrdinalValue struct {
	Value int `json:"value"`
}

func (OrdinalValue) ValueType() ValueType { return ValueOrdinal }

func (v OrdinalValue) MarshalJSON() ([]byte, error) {
	type plain OrdinalValue
	return marshalTagged(valueTypeKey, string(ValueOrdinal), plain(v))
}

type PhoneNumberValue struct {
	Value string `json:"value"`
}

func (PhoneNumberValue) ValueType() ValueType { return ValuePhoneNumber }

func (v PhoneNumberValue) MarshalJSON() ([]byte, error) {
	type plain PhoneNumberValue
	return marshalTagged(valueTypeKey, string(ValuePhoneNumber), plain(v))
}

type Candidate struct {
	Value       string  `json:"value"`
	Probability float64 `json:"probability"`
}

// StringValue is a string with ordered alternative candidates.
type StringValue struct {
	Value      string      `json:"value"`
	Candidates []Candidate `json:"candidates"`
}

func (StringValue) ValueType() ValueType { return ValueString }

func (v StringValue) MarshalJSON() ([]byte, error) {
	type plain StringValue
	if v.Candidates == nil {
		v.Candidates = []Candidate{}
	}
	return marshalTagged(valueTypeKey, string(ValueString), plain(v))
}

type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "celsius"
	Fahrenheit TemperatureUnit = "fahrenheit"
	Degree     TemperatureUnit = "degree"
)

type TemperatureValue struct {
	Value float64         `json:"value"`
	Unit  TemperatureUnit `json:"unit"`
}

func (TemperatureValue) ValueType() ValueType { return ValueTemperature }

func (v TemperatureValue) MarshalJSON() ([]byte, error) {
	type plain TemperatureValue
	return marshalTagged(valueTypeKey, string(ValueTemperature), plain(v))
}

type URLValue struct {
	Value string `json:"value"`
}

func (URLValue) ValueType() ValueType { return ValueURL }

func (v URLValue) MarshalJSON() ([]byte, error) {
	type plain URLValue
	return marshalTagged(valueTypeKey, string(ValueURL), plain(v))
}

type VolumeValue struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

func (VolumeValue) ValueType() ValueType { return ValueVolume }

func (v VolumeValue) MarshalJSON() ([]byte, error) {
	type plain VolumeValue
	return marshalTagged(valueTypeKey, string(ValueVolume), plain(v))
}
