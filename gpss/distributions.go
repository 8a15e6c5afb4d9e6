package gpss

import (
	"fmt"
	"strings"
)

// DistributionParameter describes one numeric parameter of a data-volume
// distribution.
type DistributionParameter struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder,omitempty"`
	Description string `json:"description,omitempty"`
}

var rnParameter = DistributionParameter{
	Key:         "rn",
	Label:       "Generator number RN (1-7)",
	Placeholder: "1",
	Description: "Random number stream (RNj).",
}

var distributionParameters = map[string][]DistributionParameter{
	"duniform": {
		rnParameter,
		{Key: "min", Label: "Minimum (min)", Placeholder: "64", Description: "Smallest generated value."},
		{Key: "max", Label: "Maximum (max)", Placeholder: "1500", Description: "Largest generated value."},
	},
	"binomial": {
		rnParameter,
		{Key: "n", Label: "Trials (n)", Placeholder: "10", Description: "Number of Bernoulli trials."},
		{Key: "p", Label: "Success probability (p)", Placeholder: "0.5", Description: "Probability of success per trial (0-1)."},
	},
	"negbinom": {
		rnParameter,
		{Key: "nc", Label: "Successes (nc)", Placeholder: "5", Description: "Required number of successes."},
		{Key: "p", Label: "Success probability (p)", Placeholder: "0.5", Description: "Probability of success per trial (0-1)."},
	},
	"geometric": {
		rnParameter,
		{Key: "p", Label: "Success probability (p)", Placeholder: "0.3", Description: "Probability of success (0-1)."},
	},
	"poisson": {
		rnParameter,
		{Key: "m", Label: "Mean (m)", Placeholder: "100", Description: "Mean of the distribution."},
	},
}

// DistributionParameters returns the parameter catalog for dist, or nil
// for an unknown distribution.
func DistributionParameters(dist string) []DistributionParameter {
	params := distributionParameters[dist]
	if params == nil {
		return nil
	}
	return append([]DistributionParameter(nil), params...)
}

// DistributionKeys returns the parameter keys of dist in catalog order.
func DistributionKeys(dist string) []string {
	params := distributionParameters[dist]
	keys := make([]string, len(params))
	for i, p := range params {
		keys[i] = p.Key
	}
	return keys
}

// ParametersForDistribution builds the parameter set for dist. Keys that
// also exist in previous keep their value; the rest start empty. Keys
// that dist does not declare are dropped.
func ParametersForDistribution(dist string, previous map[string]string) map[string]string {
	next := make(map[string]string, len(distributionParameters[dist]))
	for _, p := range distributionParameters[dist] {
		next[p.Key] = previous[p.Key]
	}
	return next
}

// Expression renders the GPSS call for dist with the given parameter
// values, e.g. DUNIFORM(1,64,1500). Unknown distributions fall back to
// DUNIFORM. A missing rn defaults to stream 1.
func Expression(dist string, params map[string]string) string {
	get := func(k string) string { return strings.TrimSpace(params[k]) }
	rn := get("rn")
	if rn == "" {
		rn = "1"
	}
	switch strings.ToLower(dist) {
	case "binomial":
		return fmt.Sprintf("Binomial(%s,%s,%s)", rn, get("n"), get("p"))
	case "negbinom":
		return fmt.Sprintf("NEGBINOM(%s,%s,%s)", rn, get("nc"), get("p"))
	case "geometric":
		return fmt.Sprintf("GEOMETRIC(%s,%s)", rn, get("p"))
	case "poisson":
		return fmt.Sprintf("POISSON(%s,%s)", rn, get("m"))
	default:
		return fmt.Sprintf("DUNIFORM(%s,%s,%s)", rn, get("min"), get("max"))
	}
}
