package booking

import (
	"calbook/internal/domain"
	"calbook/internal/scheduling"
)

const dateLayout = "2006/01/02"

// DayView is a day of free slots keyed YYYY/MM/DD with HH:MM bounds.
type DayView struct {
	Date  string
	Slots []SlotView
}

type SlotView struct {
	Start string
	End   string
}

// RenderDays formats slot bounds as offsets from the day's midnight, so a slot
// ending at midnight renders as 24:00.
func RenderDays(days []scheduling.DaySlots) []DayView {
	out := make([]DayView, 0, len(days))
	for _, d := range days {
		v := DayView{Date: d.Date.Format(dateLayout), Slots: make([]SlotView, 0, len(d.Slots))}
		for _, s := range d.Slots {
			v.Slots = append(v.Slots, SlotView{
				Start: domain.FormatClock(s.Start.Sub(d.Date)),
				End:   domain.FormatClock(s.End.Sub(d.Date)),
			})
		}
		out = append(out, v)
	}
	return out
}
