package domain

// ReminderType classifies what a notification reminds the user about.
type ReminderType string

const (
	ReminderWarranty       ReminderType = "warranty"
	ReminderMaintenance    ReminderType = "maintenance"
	ReminderDocumentUpdate ReminderType = "documentUpdate"
	ReminderInsurance      ReminderType = "insurance"
	ReminderInspection     ReminderType = "inspection"
	ReminderCleaning       ReminderType = "cleaning"
	ReminderBackup         ReminderType = "backup"
)

func (t ReminderType) String() string {
	return string(t)
}

func (t ReminderType) IsValid() bool {
	switch t {
	case ReminderWarranty, ReminderMaintenance, ReminderDocumentUpdate,
		ReminderInsurance, ReminderInspection, ReminderCleaning, ReminderBackup:
		return true
	}
	return false
}

// ReminderTypes lists every known reminder type, in a stable order.
func ReminderTypes() []ReminderType {
	return []ReminderType{
		ReminderWarranty,
		ReminderMaintenance,
		ReminderDocumentUpdate,
		ReminderInsurance,
		ReminderInspection,
		ReminderCleaning,
		ReminderBackup,
	}
}

// Priority drives notification density and daily-cap bypass behavior.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) String() string {
	return string(p)
}

// Rank orders priorities for sorting. Higher rank means more important.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	default:
		return 0
	}
}

// Bump raises the priority one tier. Urgent stays urgent.
func (p Priority) Bump() Priority {
	switch p {
	case PriorityLow:
		return PriorityNormal
	case PriorityNormal:
		return PriorityHigh
	case PriorityHigh:
		return PriorityUrgent
	default:
		return PriorityUrgent
	}
}

// RecurrenceInterval describes how a reminder repeats.
type RecurrenceInterval string

const (
	RecurrenceWeekly       RecurrenceInterval = "weekly"
	RecurrenceMonthly      RecurrenceInterval = "monthly"
	RecurrenceQuarterly    RecurrenceInterval = "quarterly"
	RecurrenceSemiAnnually RecurrenceInterval = "semiAnnually"
	RecurrenceAnnually     RecurrenceInterval = "annually"
	RecurrenceCustom       RecurrenceInterval = "custom"
)

func (r RecurrenceInterval) String() string {
	return string(r)
}

// InteractionAction records how the user responded to a delivered notification.
type InteractionAction string

const (
	ActionViewed      InteractionAction = "viewed"
	ActionDismissed   InteractionAction = "dismissed"
	ActionSnoozed     InteractionAction = "snoozed"
	ActionActionTaken InteractionAction = "actionTaken"
	ActionIgnored     InteractionAction = "ignored"
)

func (a InteractionAction) String() string {
	return string(a)
}
