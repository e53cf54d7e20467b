package query

import "rollcall/internal/ledger"

// AttendanceRecord is the response shape exposed to the administrative
// layer. Field names are part of the wire contract with existing clients.
type AttendanceRecord struct {
	FingerprintID  string `json:"fingerprintId"`
	NativeName     string `json:"nativeName"`
	Status         string `json:"status"`
	AttendanceDate string `json:"attendanceDate"`
	AttendanceTime string `json:"attendanceTime"`
}

// toRecord is a pure mapping from a ledger event to its response shape.
func toRecord(event ledger.Event) AttendanceRecord {
	status := event.Status
	if status == "" {
		status = "Unknown"
	}
	return AttendanceRecord{
		FingerprintID:  event.FingerprintID,
		NativeName:     event.PersonName,
		Status:         status,
		AttendanceDate: event.RecordedAt.Format(ledger.TimestampLayout),
		AttendanceTime: event.TimeOfDay,
	}
}

func toRecords(events []ledger.Event) []AttendanceRecord {
	out := make([]AttendanceRecord, 0, len(events))
	for _, event := range events {
		out = append(out, toRecord(event))
	}
	return out
}
