package domain

import "math"

const MeetingStrengthThreshold = 0.3

type MeetingGroup struct {
	SessionKey string
	AgentIDs   []AgentID
	Center     Position
}

// DetectMeetingGroups clusters agents by session key over links at or above
// the strength threshold. Groups keep the encounter order of their session
// keys, need at least two agents and are capped at MaxMeetingGroups.
func DetectMeetingGroups(links []CollaborationLink) []MeetingGroup {
	var order []string
	members := make(map[string][]AgentID)

	add := func(key string, id AgentID) {
		for _, existing := range members[key] {
			if existing == id {
				return
			}
		}
		members[key] = append(members[key], id)
	}

	for _, link := range links {
		if link.Strength < MeetingStrengthThreshold || link.SessionKey == "" {
			continue
		}
		if _, seen := members[link.SessionKey]; !seen {
			order = append(order, link.SessionKey)
		}
		add(link.SessionKey, link.SourceID)
		add(link.SessionKey, link.TargetID)
	}

	groups := make([]MeetingGroup, 0, MaxMeetingGroups)
	for _, key := range order {
		ids := members[key]
		if len(ids) < 2 {
			continue
		}
		groups = append(groups, MeetingGroup{
			SessionKey: key,
			AgentIDs:   ids,
			Center:     MeetingCenters[len(groups)],
		})
		if len(groups) == MaxMeetingGroups {
			break
		}
	}

	return groups
}

// GatherMeetings seats every grouped agent around its group's table and sends
// agents whose meeting dissolved back to where they were. It returns true when
// any agent moved.
func GatherMeetings(agents map[AgentID]*VisualAgent, groups []MeetingGroup) bool {
	moved := false
	seated := make(map[AgentID]struct{})

	for _, group := range groups {
		present := make([]*VisualAgent, 0, len(group.AgentIDs))
		for _, id := range group.AgentIDs {
			if agent, ok := agents[id]; ok {
				present = append(present, agent)
			}
		}

		// Members already seated keep their chair; newcomers take chairs no
		// member sits on.
		free := CalculateMeetingSeats(group.Center, len(present))
		for _, agent := range present {
			if agent.Zone == ZoneMeeting {
				free = removeSeat(free, agent.Position)
			}
		}

		for _, agent := range present {
			seated[agent.ID] = struct{}{}
			if agent.Zone == ZoneMeeting {
				continue
			}
			original := agent.Position
			agent.OriginalPosition = &original
			agent.OriginalZone = agent.Zone
			agent.Zone = ZoneMeeting
			agent.Position = free[0]
			free = free[1:]
			moved = true
		}
	}

	for id, agent := range agents {
		if agent.Zone != ZoneMeeting {
			continue
		}
		if _, ok := seated[id]; ok {
			continue
		}
		ReturnFromMeeting(agent)
		moved = true
	}

	return moved
}

const seatTolerance = 1e-6

func removeSeat(seats []Position, taken Position) []Position {
	for i, seat := range seats {
		if math.Abs(seat.X-taken.X) < seatTolerance && math.Abs(seat.Y-taken.Y) < seatTolerance {
			return append(seats[:i:i], seats[i+1:]...)
		}
	}
	return seats
}

// ReturnFromMeeting restores the snapshot taken when the agent was seated.
func ReturnFromMeeting(agent *VisualAgent) {
	if agent.OriginalPosition != nil {
		agent.Position = *agent.OriginalPosition
	}
	agent.Zone = agent.OriginalZone
	if agent.Zone == "" || agent.Zone == ZoneMeeting {
		agent.Zone = ZoneDesk
		if agent.IsSubAgent {
			agent.Zone = ZoneHotDesk
		}
	}
	agent.OriginalPosition = nil
	agent.OriginalZone = ""
}
