package model

import (
	"farmops/internal/model/entities"
	"farmops/internal/model/messages"
)

// Aliases exposing the common types to the services.

type (
	Field           = entities.Field
	SoilSample      = entities.SoilSample
	Lease           = entities.Lease
	Worker          = entities.Worker
	Shift           = entities.Shift
	SoilSampleEvent = messages.SoilSampleEvent
	ShiftPunchEvent = messages.ShiftPunchEvent
	ShiftSummary    = messages.ShiftSummary
	AlertEvent      = messages.AlertEvent
)

const (
	LeaseActive   = entities.LeaseActive
	LeaseInactive = entities.LeaseInactive
	PunchIn       = messages.PunchIn
	PunchOut      = messages.PunchOut

	TopicShiftPunch   = messages.TopicShiftPunch
	TopicShiftSummary = messages.TopicShiftSummary
)
