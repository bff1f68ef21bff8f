// Package warmer keeps the title cache warm in the background using a
// robfig/cron schedule.
package warmer
