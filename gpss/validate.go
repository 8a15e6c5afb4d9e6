package gpss

import (
	"sort"
	"strconv"
	"strings"

	"github.com/signalsfoundry/satnet-designer/internal/validation"
)

// Validate checks c and returns every problem keyed by its dotted field
// path. A nil result means c is valid.
//
// Required fields are experimentControl.horizon, experimentControl.timeUnit,
// trafficCharacteristics.mtu and trafficCharacteristics.dataVolumeDistribution,
// plus every parameter of the selected distribution. Enumerated fields must
// hold catalog values when set, and the parameter set must carry exactly
// the selected distribution's keys.
func (c Config) Validate() validation.FieldErrors {
	fe := validation.New()
	ec := &c.ExperimentControl
	tc := &c.TrafficCharacteristics

	// Required fields are tagged; the numeric, catalog and distribution
	// rules below depend on values and are checked by hand.
	fe.Merge("", validation.Struct("", c))

	positiveNumber(fe, "experimentControl.horizon", ec.Horizon)
	positiveInt(fe, "experimentControl.replications", ec.Replications)
	positiveInt(fe, "trafficCharacteristics.mtu", tc.MTU)
	integer(fe, "randomGenerators.baseSeed", c.RandomGenerators.BaseSeed)
	positiveNumber(fe, "channelModel.defaultThroughputValue", c.ChannelModel.DefaultThroughputValue)

	checkOptions(fe, &c)
	validateDistribution(fe, tc.DataVolumeDistribution, tc.DataVolumeParameters)

	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (c *Config) enumValues() map[string][]string {
	one := func(v string) []string {
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return map[string][]string{
		"experimentControl.timeUnit":                    one(c.ExperimentControl.TimeUnit),
		"experimentControl.aggregationMethod":           one(c.ExperimentControl.AggregationMethod),
		"experimentControl.warmUpPolicy":                one(c.ExperimentControl.WarmUpPolicy),
		"experimentControl.resetPolicy":                 one(c.ExperimentControl.ResetPolicy),
		"experimentControl.stopCondition":               one(c.ExperimentControl.StopCondition),
		"randomGenerators.seedMode":                     one(c.RandomGenerators.SeedMode),
		"randomGenerators.streamSeparation":             c.RandomGenerators.StreamSeparation,
		"randomGenerators.streamPolicy":                 one(c.RandomGenerators.StreamPolicy),
		"trafficCharacteristics.dataVolumeDistribution": one(c.TrafficCharacteristics.DataVolumeDistribution),
		"trafficCharacteristics.dataTypesComposition":   c.TrafficCharacteristics.DataTypesComposition,
		"trafficCharacteristics.dataTypeMixMode":        one(c.TrafficCharacteristics.DataTypeMixMode),
		"trafficCharacteristics.roundingPolicy":         one(c.TrafficCharacteristics.RoundingPolicy),
		"servicePolicies.serviceTimeDistribution":       one(c.ServicePolicies.ServiceTimeDistribution),
		"servicePolicies.queueDiscipline":               one(c.ServicePolicies.QueueDiscipline),
		"servicePolicies.queueLimits":                   one(c.ServicePolicies.QueueLimits),
		"channelModel.defaultThroughputUnit":            one(c.ChannelModel.DefaultThroughputUnit),
		"channelModel.delayFormula":                     one(c.ChannelModel.DelayFormula),
		"channelModel.jitterDistribution":               one(c.ChannelModel.JitterDistribution),
		"channelModel.duplexPolicy":                     one(c.ChannelModel.DuplexPolicy),
		"statisticsCollection.metrics":                  c.StatisticsCollection.Metrics,
		"statisticsCollection.aggregationGranularity":   one(c.StatisticsCollection.AggregationGranularity),
		"statisticsCollection.loggingPolicy":            one(c.StatisticsCollection.LoggingPolicy),
	}
}

func checkOptions(fe validation.FieldErrors, c *Config) {
	for field, values := range c.enumValues() {
		catalog := Catalogs[field]
		for _, v := range values {
			if !catalog.Has(v) {
				fe.Addf(field, "unknown option %q", v)
				break
			}
		}
	}
}

// ValidateDistributionParameters checks params against the catalog of
// dist and returns problems keyed below prefix.
func ValidateDistributionParameters(prefix, dist string, params map[string]string) validation.FieldErrors {
	fe := validation.New()
	validateDistributionAt(fe, prefix, dist, params)
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func validateDistribution(fe validation.FieldErrors, dist string, params map[string]string) {
	validateDistributionAt(fe, "trafficCharacteristics.dataVolumeParameters", dist, params)
}

func validateDistributionAt(fe validation.FieldErrors, prefix, dist string, params map[string]string) {
	if dist == "" {
		return
	}
	keys := DistributionKeys(dist)
	declared := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		declared[k] = struct{}{}
		field := prefix + "." + k
		v := strings.TrimSpace(params[k])
		if v == "" {
			fe.Add(field, "fill in the distribution parameter")
			continue
		}
		checkParameter(fe, field, k, v)
	}
	var extra []string
	for k := range params {
		if _, ok := declared[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		fe.Addf(prefix+"."+k, "not a parameter of %s", dist)
	}
	if dist == "duniform" {
		lo, errLo := strconv.ParseFloat(strings.TrimSpace(params["min"]), 64)
		hi, errHi := strconv.ParseFloat(strings.TrimSpace(params["max"]), 64)
		if errLo == nil && errHi == nil && lo > hi {
			fe.Add(prefix+".max", "must not be below min")
		}
	}
}

func checkParameter(fe validation.FieldErrors, field, key, v string) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		fe.Add(field, "must be a number")
		return
	}
	switch key {
	case "rn":
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 7 {
			fe.Add(field, "must be an integer between 1 and 7")
		}
	case "p":
		if f < 0 || f > 1 {
			fe.Add(field, "must be between 0 and 1")
		}
	case "n", "nc":
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fe.Add(field, "must be a positive integer")
		}
	case "m":
		if f <= 0 {
			fe.Add(field, "must be positive")
		}
	}
}

func positiveNumber(fe validation.FieldErrors, field, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		fe.Add(field, "must be a positive number")
	}
}

func positiveInt(fe validation.FieldErrors, field, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		fe.Add(field, "must be a positive integer")
	}
}

func integer(fe validation.FieldErrors, field, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if _, err := strconv.ParseInt(v, 10, 64); err != nil {
		fe.Add(field, "must be an integer")
	}
}
