package taxonomy

var categoryNames = map[int]string{
	0:  "bench_press",
	1:  "calf_raise",
	2:  "cardio",
	3:  "carry",
	4:  "chop",
	5:  "core",
	6:  "crunch",
	7:  "curl",
	8:  "deadlift",
	9:  "flye",
	10: "hip_raise",
	11: "hip_stability",
	12: "hip_swing",
	13: "hyperextension",
	14: "lateral_raise",
	15: "leg_curl",
	16: "leg_raise",
	17: "lunge",
	18: "olympic_lift",
	19: "plank",
	20: "plyo",
	21: "pull_up",
	22: "push_up",
	23: "row",
	24: "shoulder_press",
	25: "shoulder_stability",
	26: "shrug",
	27: "sit_up",
	28: "squat",
	29: "total_body",
	30: "triceps_extension",
	31: "warm_up",
	32: "run",
}

// exerciseNames holds per-category sub-tables. Categories without a sub-table resolve to
// their category name.
var exerciseNames = map[int]map[int]string{
	0: {
		0:  "alternating_dumbbell_chest_press_on_swiss_ball",
		1:  "barbell_bench_press",
		2:  "barbell_board_bench_press",
		3:  "barbell_floor_press",
		4:  "close_grip_barbell_bench_press",
		5:  "decline_dumbbell_bench_press",
		6:  "dumbbell_bench_press",
		7:  "dumbbell_floor_press",
		8:  "incline_barbell_bench_press",
		9:  "incline_dumbbell_bench_press",
		10: "incline_smith_machine_bench_press",
		11: "isometric_barbell_bench_press",
		12: "kettlebell_chest_press",
		13: "neutral_grip_dumbbell_bench_press",
		14: "neutral_grip_dumbbell_incline_bench_press",
		15: "one_arm_floor_press",
		17: "partial_lockout",
		18: "reverse_grip_barbell_bench_press",
		19: "reverse_grip_incline_bench_press",
		20: "single_arm_cable_chest_press",
		21: "single_arm_dumbbell_bench_press",
		22: "smith_machine_bench_press",
		23: "swiss_ball_dumbbell_chest_press",
		24: "triple_stop_barbell_bench_press",
		25: "wide_grip_barbell_bench_press",
		26: "alternating_dumbbell_chest_press",
	},
	7: {
		0:  "alternating_dumbbell_biceps_curl",
		5:  "barbell_biceps_curl",
		6:  "barbell_reverse_wrist_curl",
		7:  "barbell_wrist_curl",
		9:  "cable_biceps_curl",
		12: "cable_hammer_curl",
		17: "dumbbell_biceps_curl",
		18: "dumbbell_hammer_curl",
		24: "ez_bar_preacher_curl",
		30: "incline_dumbbell_biceps_curl",
	},
	8: {
		0:  "barbell_deadlift",
		1:  "barbell_straight_leg_deadlift",
		2:  "dumbbell_deadlift",
		7:  "romanian_deadlift",
		9:  "single_leg_romanian_deadlift",
		13: "sumo_deadlift",
		16: "trap_bar_deadlift",
	},
	21: {
		0:  "banded_pull_ups",
		11: "lat_pulldown",
		17: "pull_up",
		21: "chin_up",
	},
	23: {
		0:  "barbell_straight_leg_deadlift_to_row",
		5:  "dumbbell_row",
		12: "one_arm_bent_over_row",
		15: "reverse_grip_barbell_row",
		17: "seated_cable_row",
		25: "t_bar_row",
		28: "wide_grip_seated_cable_row",
		31: "barbell_row",
	},
	24: {
		0:  "alternating_dumbbell_shoulder_press",
		3:  "barbell_push_press",
		4:  "barbell_shoulder_press",
		8:  "dumbbell_push_press",
		11: "dumbbell_shoulder_press",
		13: "overhead_barbell_press",
		16: "seated_barbell_shoulder_press",
		17: "seated_dumbbell_shoulder_press",
		22: "smith_machine_overhead_press",
		24: "arnold_press",
	},
	28: {
		0:  "leg_press",
		1:  "back_squat_with_body_bar",
		2:  "back_squats",
		6:  "barbell_back_squat",
		7:  "barbell_box_squat",
		8:  "barbell_front_squat",
		27: "goblet_squat",
		81: "bulgarian_split_squat",
	},
}
