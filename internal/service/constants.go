package service

const (
	// Pagination limits
	RecentActivitiesLimit = 10
	DefaultListLimit      = 50
	MaxListLimit          = 500

	// Chart windows
	ChartDays  = 14
	ChartWeeks = 12
	TrendDays  = 90

	// Default listing windows
	DefaultDailyDays = 30
	DefaultWeeks     = 12
)
