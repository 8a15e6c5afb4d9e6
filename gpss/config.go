// Package gpss holds the experiment configuration that parameterises a
// GPSS simulation run. It is exported alongside a topology but is
// validated on its own.
package gpss

// DefaultTrafficDistribution is the data-volume distribution selected in a
// fresh configuration.
const DefaultTrafficDistribution = "duniform"

// ExperimentControl governs run length and replication.
type ExperimentControl struct {
	Horizon           string `json:"horizon" yaml:"horizon" validate:"notblank"`
	TimeUnit          string `json:"timeUnit" yaml:"timeUnit" validate:"notblank"`
	Replications      string `json:"replications" yaml:"replications"`
	AggregationMethod string `json:"aggregationMethod" yaml:"aggregationMethod"`
	WarmUpPolicy      string `json:"warmUpPolicy" yaml:"warmUpPolicy"`
	ResetPolicy       string `json:"resetPolicy" yaml:"resetPolicy"`
	StopCondition     string `json:"stopCondition" yaml:"stopCondition"`
}

// RandomGenerators configures seeding and random stream separation.
type RandomGenerators struct {
	BaseSeed         string   `json:"baseSeed" yaml:"baseSeed"`
	SeedMode         string   `json:"seedMode" yaml:"seedMode"`
	StreamSeparation []string `json:"streamSeparation" yaml:"streamSeparation"`
	StreamPolicy     string   `json:"streamPolicy" yaml:"streamPolicy"`
}

// TrafficCharacteristics describes request sizes and data types.
type TrafficCharacteristics struct {
	MTU                    string            `json:"mtu" yaml:"mtu" validate:"notblank"`
	DataVolumeDistribution string            `json:"dataVolumeDistribution" yaml:"dataVolumeDistribution" validate:"notblank"`
	DataVolumeParameters   map[string]string `json:"dataVolumeParameters" yaml:"dataVolumeParameters"`
	DataTypesComposition   []string          `json:"dataTypesComposition" yaml:"dataTypesComposition"`
	DataTypeMixMode        string            `json:"dataTypeMixMode" yaml:"dataTypeMixMode"`
	RoundingPolicy         string            `json:"roundingPolicy" yaml:"roundingPolicy"`
}

// ServicePolicies selects service-time and queueing behaviour.
type ServicePolicies struct {
	ServiceTimeDistribution string `json:"serviceTimeDistribution" yaml:"serviceTimeDistribution"`
	QueueDiscipline         string `json:"queueDiscipline" yaml:"queueDiscipline"`
	QueueLimits             string `json:"queueLimits" yaml:"queueLimits"`
}

// ChannelModel holds channel defaults used when an edge leaves them unset.
type ChannelModel struct {
	DefaultThroughputValue string `json:"defaultThroughputValue" yaml:"defaultThroughputValue"`
	DefaultThroughputUnit  string `json:"defaultThroughputUnit" yaml:"defaultThroughputUnit"`
	DelayFormula           string `json:"delayFormula" yaml:"delayFormula"`
	JitterDistribution     string `json:"jitterDistribution" yaml:"jitterDistribution"`
	DuplexPolicy           string `json:"duplexPolicy" yaml:"duplexPolicy"`
}

// StatisticsCollection selects what the run records.
type StatisticsCollection struct {
	Metrics                []string `json:"metrics" yaml:"metrics"`
	AggregationGranularity string   `json:"aggregationGranularity" yaml:"aggregationGranularity"`
	CounterPrefixes        string   `json:"counterPrefixes" yaml:"counterPrefixes"`
	LoggingPolicy          string   `json:"loggingPolicy" yaml:"loggingPolicy"`
}

// Config is the full experiment configuration. Values are kept as the
// strings a form would hold; Validate checks them.
type Config struct {
	ExperimentControl      ExperimentControl      `json:"experimentControl" yaml:"experimentControl"`
	RandomGenerators       RandomGenerators       `json:"randomGenerators" yaml:"randomGenerators"`
	TrafficCharacteristics TrafficCharacteristics `json:"trafficCharacteristics" yaml:"trafficCharacteristics"`
	ServicePolicies        ServicePolicies        `json:"servicePolicies" yaml:"servicePolicies"`
	ChannelModel           ChannelModel           `json:"channelModel" yaml:"channelModel"`
	StatisticsCollection   StatisticsCollection   `json:"statisticsCollection" yaml:"statisticsCollection"`
}

// Default returns a configuration with every enumerated field set to its
// default and the free-form fields left empty.
func Default() Config {
	return Config{
		ExperimentControl: ExperimentControl{
			TimeUnit:          "minutes",
			AggregationMethod: "mean",
			WarmUpPolicy:      "no_warmup",
			ResetPolicy:       "reset_all",
			StopCondition:     "none",
		},
		RandomGenerators: RandomGenerators{
			SeedMode:         "fixed",
			StreamSeparation: []string{},
			StreamPolicy:     "per_subsystem",
		},
		TrafficCharacteristics: TrafficCharacteristics{
			MTU:                    "65535",
			DataVolumeDistribution: DefaultTrafficDistribution,
			DataVolumeParameters:   ParametersForDistribution(DefaultTrafficDistribution, nil),
			DataTypesComposition:   []string{},
			DataTypeMixMode:        "equal",
			RoundingPolicy:         "ceil",
		},
		ServicePolicies: ServicePolicies{
			ServiceTimeDistribution: "exponential",
			QueueDiscipline:         "fifo",
			QueueLimits:             "no_limit",
		},
		ChannelModel: ChannelModel{
			DefaultThroughputUnit: "bps",
			DelayFormula:          "propagation_only",
			JitterDistribution:    "none",
			DuplexPolicy:          "full_duplex",
		},
		StatisticsCollection: StatisticsCollection{
			Metrics:                []string{},
			AggregationGranularity: "none",
			LoggingPolicy:          "aggregates",
		},
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.RandomGenerators.StreamSeparation = cloneStrings(c.RandomGenerators.StreamSeparation)
	out.TrafficCharacteristics.DataTypesComposition = cloneStrings(c.TrafficCharacteristics.DataTypesComposition)
	out.StatisticsCollection.Metrics = cloneStrings(c.StatisticsCollection.Metrics)
	if c.TrafficCharacteristics.DataVolumeParameters != nil {
		params := make(map[string]string, len(c.TrafficCharacteristics.DataVolumeParameters))
		for k, v := range c.TrafficCharacteristics.DataVolumeParameters {
			params[k] = v
		}
		out.TrafficCharacteristics.DataVolumeParameters = params
	}
	return out
}

// SetDataVolumeDistribution selects dist and reshapes the parameter set to
// its keys, carrying over values for keys both distributions share.
func (c *Config) SetDataVolumeDistribution(dist string) {
	c.TrafficCharacteristics.DataVolumeDistribution = dist
	c.TrafficCharacteristics.DataVolumeParameters = ParametersForDistribution(dist, c.TrafficCharacteristics.DataVolumeParameters)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
