package gpss

// Option is one allowed value of an enumerated configuration field.
type Option struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Catalog is the ordered set of options for one field.
type Catalog []Option

// Has reports whether v is one of the catalog values.
func (c Catalog) Has(v string) bool {
	for _, o := range c {
		if o.Value == v {
			return true
		}
	}
	return false
}

// Values returns the catalog values in order.
func (c Catalog) Values() []string {
	out := make([]string, len(c))
	for i, o := range c {
		out[i] = o.Value
	}
	return out
}

var (
	TimeUnits = Catalog{
		{"minutes", "minutes", "Base time unit is one minute."},
		{"seconds", "seconds", "Finer time resolution."},
		{"hours", "hours", "Long-running scenarios."},
	}
	WarmUpPolicies = Catalog{
		{"no_warmup", "no warm-up", "Statistics are collected from the start."},
		{"fixed_duration", "fixed duration", "Warm up until a preset time."},
		{"steady_state", "until steady state", "Finish warm-up once the chosen metric stabilises."},
	}
	ResetPolicies = Catalog{
		{"reset_all", "reset everything", "Clear every accumulated statistic."},
		{"reset_queues_resources", "reset queues and resources", "Clear queue and resource statistics only."},
		{"no_reset", "keep statistics", "Keep what was collected during warm-up."},
	}
	StopConditions = Catalog{
		{"none", "horizon only", "Stop when the horizon is reached."},
		{"processed_requests", "processed requests", "Stop after a number of processed requests."},
		{"lost_packets", "lost packets", "Stop after a number of lost packets."},
		{"total_system_time", "total system time", "Stop once accumulated system time is reached."},
		{"latency_percentile", "latency percentile", "Stop once a latency percentile converges."},
		{"metrics_stability", "metrics stability", "Stop once the selected metrics stabilise."},
	}
	AggregationMethods = Catalog{
		{"mean", "mean", "Arithmetic mean across replications."},
		{"median", "median", "Median across replications."},
		{"trimmed_mean", "trimmed mean", "Mean after discarding extremes."},
		{"confidence_interval", "confidence interval", "Mean with a confidence interval."},
		{"weighted_mean", "weighted mean", "Mean weighted by replication length."},
	}
	SeedModes = Catalog{
		{"fixed", "fixed", "Every replication uses the base seed."},
		{"auto_shift", "auto shift", "The seed is shifted per replication."},
		{"random", "random", "A fresh random seed per replication."},
	}
	StreamSeparations = Catalog{
		{"arrivals", "arrivals", "Request arrival streams."},
		{"capacity", "capacity", "Request size streams."},
		{"interfaces_in", "incoming interfaces", "Incoming interface service."},
		{"interfaces_out", "outgoing interfaces", "Outgoing interface service."},
		{"node_processing", "node processing", "On-board processing."},
		{"links", "links", "Channel behaviour."},
		{"routing", "routing", "Routing decisions."},
		{"other", "other", "Everything else."},
	}
	StreamPolicies = Catalog{
		{"per_subsystem", "per subsystem", "A separate stream per subsystem."},
		{"shared", "shared", "One shared stream."},
	}
	DataVolumeDistributions = Catalog{
		{"duniform", "discrete uniform", "DUNIFORM(rn, min, max)."},
		{"binomial", "binomial", "Binomial(rn, n, p)."},
		{"negbinom", "negative binomial", "NEGBINOM(rn, nc, p)."},
		{"geometric", "geometric", "GEOMETRIC(rn, p)."},
		{"poisson", "Poisson", "POISSON(rn, m)."},
	}
	DataTypes = Catalog{
		{"type1", "type 1", "First traffic type."},
		{"type2", "type 2", "Second traffic type."},
		{"custom", "custom", "User-defined traffic type."},
	}
	DataTypeMixModes = Catalog{
		{"equal", "equal shares", "Every type is equally likely."},
		{"vector", "probability vector", "Shares given as a vector."},
		{"empirical", "empirical", "Shares taken from observed data."},
	}
	RoundingPolicies = Catalog{
		{"ceil", "round up", "Round packet counts up."},
		{"round", "round", "Round to nearest."},
		{"floor", "round down", "Round packet counts down."},
	}
	ServiceTimeDistributions = Catalog{
		{"exponential", "exponential", ""},
		{"erlang", "Erlang", ""},
		{"gamma", "gamma", ""},
		{"lognormal", "lognormal", ""},
		{"weibull", "Weibull", ""},
		{"deterministic", "deterministic", ""},
		{"empirical", "empirical", ""},
	}
	QueueDisciplines = Catalog{
		{"fifo", "FIFO", "First in, first out."},
		{"lifo", "LIFO", "Last in, first out."},
		{"priority_fixed", "fixed priority", "Non-preemptive priorities."},
		{"priority_preemptive", "preemptive priority", "Higher priority interrupts service."},
		{"round_robin", "round robin", "Cyclic service between classes."},
	}
	QueueLimits = Catalog{
		{"no_limit", "unlimited", "Queues grow without bound."},
		{"global_limit", "global limit", "One limit for every queue."},
		{"resource_class", "per resource class", "Limits per resource class."},
	}
	ThroughputUnits = Catalog{
		{"bps", "bit/s", ""},
		{"kbps", "kbit/s", ""},
		{"mbps", "Mbit/s", ""},
		{"gbps", "Gbit/s", ""},
	}
	DelayFormulas = Catalog{
		{"propagation_only", "propagation only", "Distance over signal speed."},
		{"propagation_and_service", "propagation and service", "Propagation plus transmission time."},
		{"mm1", "M/M/1", "Queueing delay of an M/M/1 system."},
		{"md1", "M/D/1", "Queueing delay of an M/D/1 system."},
		{"custom", "custom", "User-defined formula."},
	}
	JitterDistributions = Catalog{
		{"none", "none", ""},
		{"uniform", "uniform", ""},
		{"normal", "normal", ""},
		{"lognormal", "lognormal", ""},
		{"exponential", "exponential", ""},
	}
	DuplexPolicies = Catalog{
		{"full_duplex", "full duplex", "Both directions at once."},
		{"half_duplex", "half duplex", "One direction at a time."},
		{"simplex", "simplex", "One direction only."},
	}
	Metrics = Catalog{
		{"avg_delay", "average delay", "Mean packet transit time."},
		{"delay_distribution", "delay distribution", "Delay histogram."},
		{"queue_lengths", "queue lengths", "Queue length over time."},
		{"loss_probability", "loss probability", "Estimated packet loss probability."},
		{"resource_utilization", "resource utilisation", "Share of time resources are busy."},
		{"throughput", "throughput", "System throughput."},
		{"percentiles", "percentiles p50/p90/p95/p99", "High delay percentiles."},
		{"system_time", "time in system", "Total packet residence time."},
		{"rsd", "relative deviation (RSD)", "Relative standard deviation."},
	}
	AggregationGranularities = Catalog{
		{"none", "none", "Whole-run totals only."},
		{"1m", "1 min", "One-minute intervals."},
		{"5m", "5 min", "Five-minute intervals."},
		{"15m", "15 min", "Fifteen-minute intervals."},
		{"60m", "60 min", "Hourly intervals."},
		{"custom", "custom", "User-defined interval."},
	}
	LoggingPolicies = Catalog{
		{"aggregates", "aggregates", "Aggregated statistics only."},
		{"aggregates_with_queues", "aggregates with queues", "Aggregates plus queue traces."},
		{"full", "full", "Every event."},
		{"disabled", "disabled", "No logging."},
	}
)

// Catalogs maps each enumerated field path to its option catalog. Fields
// holding lists are checked element by element.
var Catalogs = map[string]Catalog{
	"experimentControl.timeUnit":                    TimeUnits,
	"experimentControl.aggregationMethod":           AggregationMethods,
	"experimentControl.warmUpPolicy":                WarmUpPolicies,
	"experimentControl.resetPolicy":                 ResetPolicies,
	"experimentControl.stopCondition":               StopConditions,
	"randomGenerators.seedMode":                     SeedModes,
	"randomGenerators.streamSeparation":             StreamSeparations,
	"randomGenerators.streamPolicy":                 StreamPolicies,
	"trafficCharacteristics.dataVolumeDistribution": DataVolumeDistributions,
	"trafficCharacteristics.dataTypesComposition":   DataTypes,
	"trafficCharacteristics.dataTypeMixMode":        DataTypeMixModes,
	"trafficCharacteristics.roundingPolicy":         RoundingPolicies,
	"servicePolicies.serviceTimeDistribution":       ServiceTimeDistributions,
	"servicePolicies.queueDiscipline":               QueueDisciplines,
	"servicePolicies.queueLimits":                   QueueLimits,
	"channelModel.defaultThroughputUnit":            ThroughputUnits,
	"channelModel.delayFormula":                     DelayFormulas,
	"channelModel.jitterDistribution":               JitterDistributions,
	"channelModel.duplexPolicy":                     DuplexPolicies,
	"statisticsCollection.metrics":                  Metrics,
	"statisticsCollection.aggregationGranularity":   AggregationGranularities,
	"statisticsCollection.loggingPolicy":            LoggingPolicies,
}
