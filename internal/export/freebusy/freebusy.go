// Package freebusy renders computed free slots as an iCalendar VFREEBUSY
// object (RFC 5545 section 3.6.4).
package freebusy

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"calbook/internal/scheduling"
)

const productID = "-//calbook//Free Busy Export//EN"

const periodLayout = "20060102T150405Z"

type Document struct {
	Attendees []string
	Start     time.Time
	End       time.Time
	Stamp     time.Time
	Days      []scheduling.DaySlots
}

// Calendar builds the VCALENDAR holding one VFREEBUSY with an FBTYPE=FREE
// period per slot.
func Calendar(doc Document) (*ical.Calendar, error) {
	uid, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	fb := ical.NewComponent(ical.CompFreeBusy)
	fb.Props.SetText(ical.PropUID, uid.String())
	fb.Props.SetDateTime(ical.PropDateTimeStamp, doc.Stamp.UTC())
	fb.Props.SetDateTime(ical.PropDateTimeStart, doc.Start.UTC())
	fb.Props.SetDateTime(ical.PropDateTimeEnd, doc.End.UTC())

	for _, name := range doc.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		p.Params.Set(ical.ParamCommonName, name)
		p.Value = "urn:calbook:user:" + name
		fb.Props[ical.PropAttendee] = append(fb.Props[ical.PropAttendee], *p)
	}

	for _, day := range doc.Days {
		for _, s := range day.Slots {
			p := ical.NewProp(ical.PropFreeBusy)
			p.Params.Set(ical.ParamFreeBusyType, "FREE")
			p.Value = formatPeriod(s)
			fb.Props[ical.PropFreeBusy] = append(fb.Props[ical.PropFreeBusy], *p)
		}
	}

	cal.Children = append(cal.Children, fb)
	return cal, nil
}

func Encode(w io.Writer, doc Document) error {
	cal, err := Calendar(doc)
	if err != nil {
		return err
	}
	return ical.NewEncoder(w).Encode(cal)
}

// DecodeFree reads the FBTYPE=FREE periods back out of an encoded document.
func DecodeFree(r io.Reader) ([]scheduling.Slot, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, err
	}

	var out []scheduling.Slot
	for _, child := range cal.Children {
		if child.Name != ical.CompFreeBusy {
			continue
		}
		for _, p := range child.Props[ical.PropFreeBusy] {
			if t := p.Params.Get(ical.ParamFreeBusyType); t != "" && !strings.EqualFold(t, "FREE") {
				continue
			}
			for _, period := range strings.Split(p.Value, ",") {
				s, err := parsePeriod(period)
				if err != nil {
					return nil, err
				}
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func formatPeriod(s scheduling.Slot) string {
	return s.Start.UTC().Format(periodLayout) + "/" + s.End.UTC().Format(periodLayout)
}

func parsePeriod(v string) (scheduling.Slot, error) {
	startRaw, endRaw, ok := strings.Cut(strings.TrimSpace(v), "/")
	if !ok {
		return scheduling.Slot{}, fmt.Errorf("freebusy: malformed period %q", v)
	}
	start, err := time.Parse(periodLayout, startRaw)
	if err != nil {
		return scheduling.Slot{}, fmt.Errorf("freebusy: period start: %w", err)
	}
	end, err := time.Parse(periodLayout, endRaw)
	if err != nil {
		return scheduling.Slot{}, fmt.Errorf("freebusy: period end: %w", err)
	}
	return scheduling.Slot{Start: start, End: end}, nil
}
