package sysinfo

import "fmt"

// Health is the derived health block of a snapshot.
type Health struct {
	Score  int      `json:"score"`
	Status string   `json:"status"`
	Issues []string `json:"issues"`
}

// Score deductions. All thresholds are strict: usage exactly at a
// threshold deducts nothing.
const (
	cpuThreshold  = 80.0
	memThreshold  = 85.0
	diskThreshold = 90.0

	cpuPenalty       = 15
	memPenalty       = 20
	diskPenalty      = 25
	antivirusPenalty = 15
	firewallPenalty  = 10
)

// ScoreHealth derives the 0-100 health score and status from a snapshot.
func ScoreHealth(snap *Snapshot) *Health {
	score := 100
	issues := []string{}

	if snap.CPU.UsagePercent > cpuThreshold {
		score -= cpuPenalty
		issues = append(issues, "high CPU usage")
	}
	if snap.Memory.Percent > memThreshold {
		score -= memPenalty
		issues = append(issues, "low available memory")
	}
	for _, disk := range snap.Disks {
		if disk.Percent > diskThreshold {
			score -= diskPenalty
			issues = append(issues, fmt.Sprintf("disk %s almost full", disk.Device))
		}
	}
	if snap.Security.Antivirus != "active" {
		score -= antivirusPenalty
		issues = append(issues, "antivirus inactive")
	}
	if snap.Security.Firewall != "active" {
		score -= firewallPenalty
		issues = append(issues, "firewall inactive")
	}

	if score < 0 {
		score = 0
	}

	return &Health{
		Score:  score,
		Status: statusFor(score),
		Issues: issues,
	}
}

func statusFor(score int) string {
	switch {
	case score >= 80:
		return "healthy"
	case score >= 50:
		return "warning"
	default:
		return "critical"
	}
}
