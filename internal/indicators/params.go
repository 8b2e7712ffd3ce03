package indicators

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Query parameter names accepted by ParseParams
const (
	ParamRSIPeriod  = "rsiPeriod"
	ParamMACDFast   = "macdFast"
	ParamMACDSlow   = "macdSlow"
	ParamMACDSignal = "macdSignal"
	ParamBBPeriod   = "bbPeriod"
	ParamBBStdDev   = "bbStdDev"
)

// ParamNames lists every accepted parameter name
var ParamNames = []string{
	ParamRSIPeriod, ParamMACDFast, ParamMACDSlow, ParamMACDSignal, ParamBBPeriod, ParamBBStdDev,
}

// Params configures the indicator engine
type Params struct {
	RSIPeriod  int     `json:"rsiPeriod" param:"rsiPeriod" default:"14" validate:"gt=0"`
	MACDFast   int     `json:"macdFast" param:"macdFast" default:"12" validate:"gt=0"`
	MACDSlow   int     `json:"macdSlow" param:"macdSlow" default:"26" validate:"gt=0"`
	MACDSignal int     `json:"macdSignal" param:"macdSignal" default:"9" validate:"gt=0"`
	BBPeriod   int     `json:"bbPeriod" param:"bbPeriod" default:"20" validate:"gt=0"`
	BBStdDev   float64 `json:"bbStdDev" param:"bbStdDev" default:"2" validate:"gt=0"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("param")
	})
}

// DefaultParams returns the standard 14 / 12-26-9 / 20x2 configuration
func DefaultParams() Params {
	var p Params
	defaults.MustSet(&p)
	return p
}

// Validate checks that every period and the band multiplier are positive
func (p Params) Validate() error {
	if math.IsNaN(p.BBStdDev) || math.IsInf(p.BBStdDev, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidParams, ParamBBStdDev)
	}

	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		names := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			names = append(names, fe.Field())
		}
		return fmt.Errorf("%w: %s must be positive", ErrInvalidParams, strings.Join(names, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidParams, err)
}

// ParseParams builds Params from query-style values. Each parameter is
// optional and overrides its default independently.
func ParseParams(values url.Values) (Params, error) {
	p := DefaultParams()

	ints := []struct {
		name string
		dst  *int
	}{
		{ParamRSIPeriod, &p.RSIPeriod},
		{ParamMACDFast, &p.MACDFast},
		{ParamMACDSlow, &p.MACDSlow},
		{ParamMACDSignal, &p.MACDSignal},
		{ParamBBPeriod, &p.BBPeriod},
	}
	for _, f := range ints {
		if !values.Has(f.name) {
			continue
		}
		raw := strings.TrimSpace(values.Get(f.name))
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, fmt.Errorf("%w: %s must be a positive integer, got %q", ErrInvalidParams, f.name, raw)
		}
		*f.dst = n
	}

	if values.Has(ParamBBStdDev) {
		raw := strings.TrimSpace(values.Get(ParamBBStdDev))
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Params{}, fmt.Errorf("%w: %s must be a positive number, got %q", ErrInvalidParams, ParamBBStdDev, raw)
		}
		p.BBStdDev = v
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}
