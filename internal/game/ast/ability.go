package ast

import (
	"fmt"
	"strings"

	"github.com/inkwell-labs/lorcana-engine/internal/game/rules"
)

// AbilityKind distinguishes how an ability is put to work.
type AbilityKind string

const (
	AbilityTriggered AbilityKind = "triggered"
	AbilityStatic    AbilityKind = "static"
	AbilityActivated AbilityKind = "activated"
)

// Subject says whose event a triggered ability listens to.
type Subject string

const (
	SubjectSelf              Subject = "self"
	SubjectYourCharacter     Subject = "your_character"
	SubjectYourOther         Subject = "your_other_character"
	SubjectOpposingCharacter Subject = "opposing_character"
	SubjectAnyCharacter      Subject = "any_character"
	SubjectYou               Subject = "you"
	SubjectOpponent          Subject = "opponent"
	SubjectAny               Subject = "any"
)

// Trigger describes the event a triggered ability reacts to.
type Trigger struct {
	Event   rules.EventType `mapstructure:"event"`
	Subject Subject         `mapstructure:"subject"`
	Filter  *Filter         `mapstructure:"filter"`
	// Zones the source may be in for the ability to fire. Defaults to play.
	Zones []string `mapstructure:"zones"`
}

// Cost is what an activated ability asks for.
type Cost struct {
	Exert      bool `mapstructure:"exert"`
	Ink        int  `mapstructure:"ink"`
	BanishSelf bool `mapstructure:"banish_self"`
	Discard    int  `mapstructure:"discard"`
}

// Ability is one compiled ability of a card definition.
type Ability struct {
	ID        string      `mapstructure:"id"`
	Name      string      `mapstructure:"name"`
	Text      string      `mapstructure:"text"`
	Kind      AbilityKind `mapstructure:"kind"`
	Trigger   *Trigger    `mapstructure:"trigger"`
	Condition *Condition  `mapstructure:"condition"`
	Effect    *Effect     `mapstructure:"effect"`
	Cost      *Cost       `mapstructure:"cost"`
	Optional  bool        `mapstructure:"optional"`
}

// MonitorsZone reports whether the trigger fires while its card is in zone.
func (t *Trigger) MonitorsZone(zone string) bool {
	if t == nil {
		return false
	}
	if len(t.Zones) == 0 {
		return zone == "play"
	}
	for _, z := range t.Zones {
		if strings.EqualFold(z, zone) {
			return true
		}
	}
	return false
}

var eventAliases = map[string]rules.EventType{
	"on_play":        rules.EventCardPlayed,
	"when_played":    rules.EventCardPlayed,
	"played":         rules.EventCardPlayed,
	"enters_play":    rules.EventCardPlayed,
	"on_quest":       rules.EventQuested,
	"quests":         rules.EventQuested,
	"on_challenge":   rules.EventChallenges,
	"challenges":     rules.EventChallenges,
	"is_challenged":  rules.EventChallenged,
	"on_banish":      rules.EventBanished,
	"banished":       rules.EventBanished,
	"start_of_turn":  rules.EventTurnStart,
	"end_of_turn":    rules.EventTurnEnd,
	"sings":          rules.EventSongSung,
	"song_sung":      rules.EventSongSung,
	"damaged":        rules.EventDamaged,
	"drawn":          rules.EventCardDrawn,
	"inked":          rules.EventCardInked,
	"moves":          rules.EventMovedToLoc,
	"gains_lore":     rules.EventLoreGained,
	"returned":       rules.EventReturnedToHand,
	"shifted":        rules.EventCardShifted,
	"readied":        rules.EventReadied,
	"exerted":        rules.EventExerted,
	"discarded":      rules.EventDiscarded,
	"damage_removed": rules.EventDamageRemoved,
}

func normalizeEvent(raw rules.EventType) rules.EventType {
	key := lower(string(raw))
	if evt, ok := eventAliases[key]; ok {
		return evt
	}
	return rules.EventType(strings.ToUpper(key))
}

func (a *Ability) normalize() error {
	a.Kind = AbilityKind(lower(string(a.Kind)))
	if a.Kind == "" {
		switch {
		case a.Trigger != nil:
			a.Kind = AbilityTriggered
		case a.Cost != nil:
			a.Kind = AbilityActivated
		default:
			a.Kind = AbilityStatic
		}
	}
	switch a.Kind {
	case AbilityTriggered:
		if a.Trigger == nil || a.Trigger.Event == "" {
			return fmt.Errorf("ability %q: triggered ability needs a trigger event", a.label())
		}
		a.Trigger.Event = normalizeEvent(a.Trigger.Event)
		a.Trigger.Subject = Subject(lower(string(a.Trigger.Subject)))
		if a.Trigger.Subject == "" {
			switch a.Trigger.Event {
			case rules.EventTurnStart, rules.EventTurnEnd:
				a.Trigger.Subject = SubjectYou
			default:
				a.Trigger.Subject = SubjectSelf
			}
		}
		a.Trigger.Filter.normalize()
	case AbilityActivated:
		if a.Cost == nil {
			a.Cost = &Cost{}
		}
	case AbilityStatic:
	default:
		return fmt.Errorf("ability %q: unknown kind %q", a.label(), a.Kind)
	}
	if a.Effect == nil {
		return fmt.Errorf("ability %q: missing effect", a.label())
	}
	if err := a.Condition.normalize(); err != nil {
		return fmt.Errorf("ability %q: %w", a.label(), err)
	}
	if err := a.Effect.normalize(); err != nil {
		return fmt.Errorf("ability %q: %w", a.label(), err)
	}
	return nil
}

func (a *Ability) label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}
