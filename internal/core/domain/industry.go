package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type Activity int32

const (
	ActivityManufacturing      Activity = 1
	ActivityResearchTime       Activity = 3
	ActivityResearchMaterial   Activity = 4
	ActivityCopying            Activity = 5
	ActivityReverseEngineering Activity = 7
	ActivityInvention          Activity = 8
	ActivityReactions          Activity = 9
	ActivityReactionsLegacy    Activity = 11
)

func (a Activity) IsManufacturing() bool { return a == ActivityManufacturing }

func (a Activity) IsReaction() bool {
	return a == ActivityReactions || a == ActivityReactionsLegacy
}

func (a Activity) IsResearch() bool { return !a.IsManufacturing() && !a.IsReaction() }

type JobStatus int32

const (
	JobStatusActive    JobStatus = 1
	JobStatusPaused    JobStatus = 2
	JobStatusReady     JobStatus = 3
	JobStatusDelivered JobStatus = 101
	JobStatusCancelled JobStatus = 102
	JobStatusReverted  JobStatus = 103
)

type IndustryJob struct {
	JobID                int64
	InstallerID          int64
	InstallerName        string
	FacilityID           int64
	SolarSystemID        int64
	SolarSystemName      string
	StationID            int64
	Activity             Activity
	BlueprintID          int64
	BlueprintTypeID      int32
	BlueprintTypeName    string
	BlueprintLocationID  int64
	OutputLocationID     int64
	Runs                 int32
	Cost                 decimal.Decimal
	TeamID               int64
	LicensedRuns         int32
	Probability          float64
	ProductTypeID        *int32
	ProductTypeName      string
	Status               JobStatus
	TimeInSeconds        int32
	StartDate            time.Time
	EndDate              time.Time
	PauseDate            time.Time
	CompletedDate        time.Time
	CompletedCharacterID int64

	Blueprint Item
	Output    Item
	OwnerID   int64
}

func (j *IndustryJob) IsDelivered() bool {
	switch j.Status {
	case JobStatusDelivered, JobStatusCancelled, JobStatusReverted:
		return true
	}
	return false
}

func (j *IndustryJob) IsManufacturing() bool { return j.Activity.IsManufacturing() }

// IsDone reports a job that occupies a slot but has finished work.
func (j *IndustryJob) IsDone(now time.Time) bool {
	if j.Status == JobStatusReady {
		return true
	}
	return j.Status == JobStatusActive && !j.EndDate.IsZero() && !j.EndDate.After(now)
}

func (j *IndustryJob) IsRunning(now time.Time) bool {
	switch j.Status {
	case JobStatusPaused:
		return true
	case JobStatusActive:
		return !j.IsDone(now)
	}
	return false
}

type Blueprint struct {
	ItemID             int64
	LocationID         int64
	TypeID             int32
	TypeName           string
	FlagID             int32
	Quantity           int32
	TimeEfficiency     int32
	MaterialEfficiency int32
	Runs               int32
}

// IsCopy follows the API convention: quantity -2 marks a copy.
func (b Blueprint) IsCopy() bool { return b.Quantity == -2 }

// SlotLimits is the number of concurrent jobs an owner may run per activity group.
type SlotLimits struct {
	Manufacturing int
	Research      int
	Reactions     int
}

type SlotCounters struct {
	Done   int
	Free   int
	Active int
	Max    int
}

func (c *SlotCounters) add(o SlotCounters) {
	c.Done += o.Done
	c.Free += o.Free
	c.Active += o.Active
	c.Max += o.Max
}

func (c *SlotCounters) settle() {
	c.Free = c.Max - c.Active - c.Done
	if c.Free < 0 {
		c.Free = 0
	}
}

// IndustrySlot is one row of slot usage, per owner or the grand total.
type IndustrySlot struct {
	OwnerID       int64
	OwnerName     string
	Manufacturing SlotCounters
	Research      SlotCounters
	Reactions     SlotCounters
	GrandTotal    bool
}

func NewIndustrySlot(owner OwnerContext, limits SlotLimits) IndustrySlot {
	return IndustrySlot{
		OwnerID:       owner.ID,
		OwnerName:     owner.Name,
		Manufacturing: SlotCounters{Max: limits.Manufacturing, Free: limits.Manufacturing},
		Research:      SlotCounters{Max: limits.Research, Free: limits.Research},
		Reactions:     SlotCounters{Max: limits.Reactions, Free: limits.Reactions},
	}
}

// Count adds one job to the row.
func (s *IndustrySlot) Count(job *IndustryJob, now time.Time) {
	var counters *SlotCounters
	switch {
	case job.Activity.IsManufacturing():
		counters = &s.Manufacturing
	case job.Activity.IsReaction():
		counters = &s.Reactions
	default:
		counters = &s.Research
	}
	switch {
	case job.IsDone(now):
		counters.Done++
	case job.IsRunning(now):
		counters.Active++
	}
	counters.settle()
}

// Add accumulates another row into this one.
func (s *IndustrySlot) Add(o IndustrySlot) {
	s.Manufacturing.add(o.Manufacturing)
	s.Research.add(o.Research)
	s.Reactions.add(o.Reactions)
}

// SortIndustrySlots moves grand total rows to the end and leaves every other
// row in its current order.
func SortIndustrySlots(slots []IndustrySlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		return !slots[i].GrandTotal && slots[j].GrandTotal
	})
}
