package gpss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	c := Default()
	c.ExperimentControl.Horizon = "1440"
	c.ExperimentControl.Replications = "5"
	c.RandomGenerators.BaseSeed = "42"
	c.TrafficCharacteristics.DataVolumeParameters = map[string]string{"rn": "1", "min": "64", "max": "1500"}
	return c
}

func TestDefaultNeedsHorizonAndParameters(t *testing.T) {
	fe := Default().Validate()
	require.NotNil(t, fe)

	assert.Contains(t, fe, "experimentControl.horizon")
	for _, k := range []string{"rn", "min", "max"} {
		assert.Contains(t, fe, "trafficCharacteristics.dataVolumeParameters."+k)
	}
	assert.NotContains(t, fe, "experimentControl.timeUnit")
	assert.NotContains(t, fe, "trafficCharacteristics.mtu")
}

func TestValidateRejectsBlankRequiredFields(t *testing.T) {
	c := validConfig()
	c.ExperimentControl.Horizon = "   "
	c.TrafficCharacteristics.MTU = ""
	c.TrafficCharacteristics.DataVolumeDistribution = "\t"

	fe := c.Validate()
	require.NotNil(t, fe)
	assert.Equal(t, "field is required", fe["experimentControl.horizon"])
	assert.Equal(t, "field is required", fe["trafficCharacteristics.mtu"])
	assert.Equal(t, "field is required", fe["trafficCharacteristics.dataVolumeDistribution"])
	assert.NotContains(t, fe, "experimentControl.timeUnit")
}

func TestValidConfigPasses(t *testing.T) {
	c := validConfig()
	assert.Nil(t, c.Validate())
}

func TestValidateReportsEveryField(t *testing.T) {
	c := validConfig()
	c.ExperimentControl.Horizon = "-5"
	c.ExperimentControl.Replications = "1.5"
	c.ExperimentControl.TimeUnit = ""
	c.RandomGenerators.BaseSeed = "seed"
	c.RandomGenerators.StreamSeparation = []string{"arrivals", "telepathy"}
	c.TrafficCharacteristics.MTU = "0"
	c.ServicePolicies.QueueDiscipline = "random"
	c.ChannelModel.DefaultThroughputValue = "fast"

	fe := c.Validate()
	require.NotNil(t, fe)
	for _, k := range []string{
		"experimentControl.horizon",
		"experimentControl.replications",
		"experimentControl.timeUnit",
		"randomGenerators.baseSeed",
		"randomGenerators.streamSeparation",
		"trafficCharacteristics.mtu",
		"servicePolicies.queueDiscipline",
		"channelModel.defaultThroughputValue",
	} {
		assert.Contains(t, fe, k)
	}
	assert.Len(t, fe, 8)
}

func TestDistributionParameterRules(t *testing.T) {
	tests := []struct {
		name   string
		dist   string
		params map[string]string
		bad    []string
	}{
		{"duniform ok", "duniform", map[string]string{"rn": "2", "min": "1", "max": "9"}, nil},
		{"duniform inverted", "duniform", map[string]string{"rn": "1", "min": "9", "max": "1"}, []string{"max"}},
		{"rn out of range", "poisson", map[string]string{"rn": "8", "m": "3"}, []string{"rn"}},
		{"poisson non-positive mean", "poisson", map[string]string{"rn": "1", "m": "0"}, []string{"m"}},
		{"binomial probability", "binomial", map[string]string{"rn": "1", "n": "10", "p": "1.2"}, []string{"p"}},
		{"binomial trials", "binomial", map[string]string{"rn": "1", "n": "2.5", "p": "0.5"}, []string{"n"}},
		{"negbinom ok", "negbinom", map[string]string{"rn": "3", "nc": "5", "p": "0.3"}, nil},
		{"geometric missing", "geometric", map[string]string{"rn": "1"}, []string{"p"}},
		{"extra key", "geometric", map[string]string{"rn": "1", "p": "0.5", "m": "2"}, []string{"m"}},
		{"not a number", "poisson", map[string]string{"rn": "1", "m": "lots"}, []string{"m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := ValidateDistributionParameters("p", tt.dist, tt.params)
			if len(tt.bad) == 0 {
				assert.Nil(t, fe)
				return
			}
			require.Len(t, fe, len(tt.bad))
			for _, k := range tt.bad {
				assert.Contains(t, fe, "p."+k)
			}
		})
	}
}

func TestSetDataVolumeDistributionCarriesSharedKeys(t *testing.T) {
	c := validConfig()
	c.TrafficCharacteristics.DataVolumeParameters["rn"] = "4"

	c.SetDataVolumeDistribution("poisson")
	assert.Equal(t, "poisson", c.TrafficCharacteristics.DataVolumeDistribution)
	assert.Equal(t, map[string]string{"rn": "4", "m": ""}, c.TrafficCharacteristics.DataVolumeParameters)

	c.SetDataVolumeDistribution("binomial")
	assert.Equal(t, map[string]string{"rn": "4", "n": "", "p": ""}, c.TrafficCharacteristics.DataVolumeParameters)
}

func TestExpression(t *testing.T) {
	tests := []struct {
		dist   string
		params map[string]string
		want   string
	}{
		{"duniform", map[string]string{"rn": "1", "min": "64", "max": "1500"}, "DUNIFORM(1,64,1500)"},
		{"binomial", map[string]string{"rn": "2", "n": "10", "p": "0.5"}, "Binomial(2,10,0.5)"},
		{"negbinom", map[string]string{"rn": "3", "nc": "5", "p": "0.4"}, "NEGBINOM(3,5,0.4)"},
		{"geometric", map[string]string{"p": "0.3"}, "GEOMETRIC(1,0.3)"},
		{"POISSON", map[string]string{"rn": " 5 ", "m": "100"}, "POISSON(5,100)"},
		{"mystery", map[string]string{"min": "1", "max": "2"}, "DUNIFORM(1,1,2)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Expression(tt.dist, tt.params), tt.dist)
	}
}

func TestCatalogs(t *testing.T) {
	for field, cat := range Catalogs {
		require.NotEmpty(t, cat, field)
		seen := make(map[string]bool)
		for _, o := range cat {
			assert.False(t, seen[o.Value], "%s: duplicate option %q", field, o.Value)
			seen[o.Value] = true
			assert.NotEmpty(t, o.Label, "%s: %q has no label", field, o.Value)
		}
	}
	for _, dist := range DataVolumeDistributions.Values() {
		assert.NotEmpty(t, DistributionParameters(dist), dist)
		assert.Equal(t, "rn", DistributionKeys(dist)[0], dist)
	}
	assert.Nil(t, DistributionParameters("weibull"))
}

func TestCloneIsDeep(t *testing.T) {
	c := validConfig()
	c.StatisticsCollection.Metrics = []string{"throughput"}
	d := c.Clone()

	d.TrafficCharacteristics.DataVolumeParameters["rn"] = "7"
	d.StatisticsCollection.Metrics[0] = "rsd"
	assert.Equal(t, "1", c.TrafficCharacteristics.DataVolumeParameters["rn"])
	assert.Equal(t, "throughput", c.StatisticsCollection.Metrics[0])
}

func TestCloneKeepsEmptyListsNonNil(t *testing.T) {
	c := Default()
	require.NotNil(t, c.StatisticsCollection.Metrics)

	d := c.Clone()
	assert.Equal(t, c, d)
	assert.NotNil(t, d.RandomGenerators.StreamSeparation)
	assert.NotNil(t, d.TrafficCharacteristics.DataTypesComposition)
	assert.NotNil(t, d.StatisticsCollection.Metrics)

	var unset Config
	assert.Nil(t, unset.Clone().StatisticsCollection.Metrics)
}
