package sqlquery

type param struct {
	name     string
	fallback any
}

type queryTemplate struct {
	sql    string
	params []param
}

// overviewTemplate answers queries the classifier could not map to a
// specific intent with headline dataset statistics.
var overviewTemplate = queryTemplate{
	sql: `select count(*) as journeys,
		avg(arrival_delay_minutes) as avg_delay,
		avg(food_satisfaction_score) as avg_food_score,
		avg(actual_flown_miles) as avg_miles
	from journey`,
}

// templates maps classified intents to curated SQL over the operational
// dataset. Parameters default to sensible analytical thresholds so a query
// still runs when entity extraction comes up empty.
var templates = map[string]queryTemplate{
	"analytics.cx.global_avg": {
		sql: `select avg(food_satisfaction_score) as global_avg_food_score from journey`,
	},
	"analytics.cx.by_class": {
		sql: `select passenger_class, avg(food_satisfaction_score) as avg_score
			from journey group by passenger_class order by avg_score desc`,
	},
	"analytics.cx.fleet_ranking_top": {
		sql: `select fleet_type, avg(food_satisfaction_score) as score
			from journey group by fleet_type order by score desc limit 1`,
	},
	"analytics.cx.fleet_ranking_bottom": {
		sql: `select fleet_type, avg(food_satisfaction_score) as score
			from journey group by fleet_type order by score asc limit 1`,
	},
	"analytics.cx.by_generation": {
		sql: `select p.generation, avg(j.food_satisfaction_score) as avg_score
			from journey j join passenger p on p.id = j.passenger_id
			group by p.generation`,
	},
	"analytics.cx.by_loyalty_tier": {
		sql: `select p.loyalty_program_level, avg(j.food_satisfaction_score) as avg_score
			from journey j join passenger p on p.id = j.passenger_id
			group by p.loyalty_program_level`,
	},
	"analytics.cx.correlation_legs": {
		sql: `select number_of_legs, avg(food_satisfaction_score) as avg_score
			from journey group by number_of_legs order by number_of_legs`,
	},
	"analytics.cx.dest_ranking": {
		sql: `select destination, avg(food_satisfaction_score) as score
			from journey group by destination order by score desc limit 1`,
	},
	"analytics.cx.origin_ranking": {
		sql: `select origin, avg(food_satisfaction_score) as score
			from journey group by origin order by score asc limit 1`,
	},
	"analytics.cx.correlation_delay": {
		sql: `select arrival_delay_minutes > ? as is_delayed,
			avg(food_satisfaction_score) as avg_score
			from journey group by is_delayed`,
		params: []param{{name: "min_delay", fallback: 30.0}},
	},
	"analytics.cx.specific_segment": {
		sql: `select feedback_id, passenger_class, food_satisfaction_score,
			arrival_delay_minutes, fleet_type, origin, destination
			from journey
			where passenger_class = ? and food_satisfaction_score <= ?
			order by food_satisfaction_score asc limit 10`,
		params: []param{
			{name: "passenger_class", fallback: "Economy"},
			{name: "max_score", fallback: 2.0},
		},
	},
	"analytics.ops.avg_delay_fleet": {
		sql: `select fleet_type, avg(arrival_delay_minutes) as avg_delay
			from journey group by fleet_type order by avg_delay desc`,
	},
	"analytics.ops.origin_delay": {
		sql: `select origin, avg(arrival_delay_minutes) as avg_delay
			from journey where origin = ? group by origin`,
		params: []param{{name: "station_code", fallback: "ORD"}},
	},
	"analytics.ops.chronic_delay_flights": {
		sql: `select flight_number, avg(arrival_delay_minutes) as avg_delay
			from journey group by flight_number
			having avg(arrival_delay_minutes) > ?
			order by avg_delay desc limit 10`,
		params: []param{{name: "min_delay", fallback: 30.0}},
	},
	"analytics.ops.max_delay": {
		sql: `select feedback_id, flight_number, arrival_delay_minutes,
			origin, destination, fleet_type
			from journey order by arrival_delay_minutes desc limit 1`,
	},
	"analytics.ops.global_delay_pct": {
		sql: `select avg(case when arrival_delay_minutes > ? then 1.0 else 0.0 end) * 100
			as delayed_pct from journey`,
		params: []param{{name: "min_delay", fallback: 15.0}},
	},
	"analytics.ops.long_haul_delay": {
		sql: `select avg(arrival_delay_minutes) as avg_delay
			from journey where actual_flown_miles > ?`,
		params: []param{{name: "min_miles", fallback: 1500.0}},
	},
	"analytics.ops.delay_by_class": {
		sql: `select passenger_class, avg(arrival_delay_minutes) as avg_delay
			from journey group by passenger_class order by avg_delay desc`,
	},
	"analytics.loyalty.breakdown": {
		sql: `select loyalty_program_level, count(*) as passengers
			from passenger group by loyalty_program_level order by passengers desc`,
	},
	"analytics.loyalty.top_tier_delays": {
		sql: `select j.feedback_id, j.flight_number, j.arrival_delay_minutes,
			p.loyalty_program_level
			from journey j join passenger p on p.id = j.passenger_id
			where p.loyalty_program_level = ? and j.arrival_delay_minutes > ?
			order by j.arrival_delay_minutes desc limit 10`,
		params: []param{
			{name: "loyalty_level", fallback: "Platinum"},
			{name: "min_delay", fallback: 30.0},
		},
	},
	"analytics.network.route_frequency": {
		sql: `select origin || '-' || destination as route, count(*) as freq
			from journey group by route order by freq desc limit 10`,
	},
	"analytics.network.fleet_count": {
		sql: `select count(distinct fleet_type) as fleet_types from journey`,
	},
	"analytics.network.hub_identification": {
		sql: `select origin, count(*) as departures
			from journey group by origin order by departures desc limit 1`,
	},
}
