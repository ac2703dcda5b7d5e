package stockfish

import (
	"strconv"
	"strings"
)

// parseLine converts one raw engine output line into a typed event.
// Lines outside the UCI grammar, including ones with malformed numeric
// fields, come back as eventUnknown; the parser never fails, since
// engines are free to emit diagnostic output between protocol lines.
func parseLine(raw string) event {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return event{kind: eventUnknown, raw: raw}
	}
	switch fields[0] {
	case "uciok":
		return event{kind: eventUCIOk, raw: raw}
	case "readyok":
		return event{kind: eventReadyOk, raw: raw}
	case "id":
		if len(fields) < 3 {
			return event{kind: eventUnknown, raw: raw}
		}
		return event{
			kind:    eventID,
			raw:     raw,
			idField: fields[1],
			idValue: strings.Join(fields[2:], " "),
		}
	case "option":
		opt, ok := parseOption(fields[1:])
		if !ok {
			return event{kind: eventUnknown, raw: raw}
		}
		return event{kind: eventOption, raw: raw, option: opt}
	case "info":
		info, ok := parseInfo(fields[1:])
		if !ok {
			return event{kind: eventUnknown, raw: raw}
		}
		return event{kind: eventInfo, raw: raw, info: info}
	case "bestmove":
		if len(fields) < 2 {
			return event{kind: eventUnknown, raw: raw}
		}
		ev := event{kind: eventBestMove, raw: raw}
		if fields[1] != "(none)" {
			ev.bestMove = fields[1]
		}
		if len(fields) >= 4 && fields[2] == "ponder" {
			ev.ponder = fields[3]
		}
		return ev
	}
	return event{kind: eventUnknown, raw: raw}
}

// parseOption handles the tokens after "option", e.g.
// name Skill Level type spin default 20 min 0 max 20
// name Style type combo default Normal var Solid var Normal var Risky
func parseOption(fields []string) (advertisedOption, bool) {
	var opt advertisedOption
	if len(fields) == 0 || fields[0] != "name" {
		return opt, false
	}
	i := 1
	var name []string
	for i < len(fields) && fields[i] != "type" {
		name = append(name, fields[i])
		i++
	}
	if len(name) == 0 || i+1 >= len(fields) {
		return opt, false
	}
	opt.Name = strings.Join(name, " ")
	switch fields[i+1] {
	case "check":
		opt.Type = OptionCheck
	case "spin":
		opt.Type = OptionSpin
	case "combo":
		opt.Type = OptionCombo
	case "button":
		opt.Type = OptionButton
	case "string":
		opt.Type = OptionString
	default:
		return opt, false
	}
	i += 2
	for i < len(fields) {
		switch fields[i] {
		case "default":
			// The default runs until the next keyword and may be empty
			// (string options often advertise a blank default).
			i++
			var def []string
			for i < len(fields) && fields[i] != "min" && fields[i] != "max" && fields[i] != "var" {
				def = append(def, fields[i])
				i++
			}
			opt.Default = strings.Join(def, " ")
		case "min":
			i++
			if i >= len(fields) {
				return opt, false
			}
			v, err := strconv.Atoi(fields[i])
			if err != nil {
				return opt, false
			}
			opt.Min = v
			i++
		case "max":
			i++
			if i >= len(fields) {
				return opt, false
			}
			v, err := strconv.Atoi(fields[i])
			if err != nil {
				return opt, false
			}
			opt.Max = v
			i++
		case "var":
			i++
			var choice []string
			for i < len(fields) && fields[i] != "var" && fields[i] != "min" && fields[i] != "max" {
				choice = append(choice, fields[i])
				i++
			}
			if len(choice) == 0 {
				return opt, false
			}
			opt.Choices = append(opt.Choices, strings.Join(choice, " "))
		default:
			i++
		}
	}
	return opt, true
}

// parseInfo handles the tokens after "info". Unknown keys are skipped;
// a malformed value for a known numeric key rejects the whole line.
func parseInfo(fields []string) (SearchInfo, bool) {
	var info SearchInfo
	i := 0
	for i < len(fields) {
		key := fields[i]
		switch key {
		case "depth", "seldepth", "multipv", "nodes", "nps", "time", "hashfull", "tbhits", "currmovenumber":
			if i+1 >= len(fields) {
				return info, false
			}
			v, err := strconv.ParseInt(fields[i+1], 10, 64)
			if err != nil {
				return info, false
			}
			switch key {
			case "depth":
				info.Depth = int(v)
			case "seldepth":
				info.SelDepth = int(v)
			case "multipv":
				info.MultiPV = int(v)
			case "nodes":
				info.Nodes = v
			case "nps":
				info.NPS = v
			case "time":
				info.TimeMS = v
			}
			i += 2
		case "score":
			if i+2 >= len(fields) {
				return info, false
			}
			v, err := strconv.Atoi(fields[i+2])
			if err != nil {
				return info, false
			}
			switch fields[i+1] {
			case "cp":
				info.Score.CP = &v
			case "mate":
				info.Score.Mate = &v
			default:
				return info, false
			}
			i += 3
		case "pv":
			info.PV = append([]string{}, fields[i+1:]...)
			i = len(fields)
		case "wdl":
			i += 4
		case "currmove":
			i += 2
		case "lowerbound", "upperbound":
			i++
		case "string":
			// Free-form text to the end of the line.
			i = len(fields)
		default:
			i++
		}
	}
	if info.PV == nil {
		info.PV = []string{}
	}
	return info, true
}
