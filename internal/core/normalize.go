package core

import (
	"strconv"
	"strings"
	"time"
)

// The upstream emits the same logical field under several spellings,
// depending on which backend produced the payload. Each field is read
// through one ordered fallback chain, defined here and nowhere else.
//
//	id             Id, id, ID
//	device id      IdDispositivo, idDispositivo, ID Dispositivo, ID
//	dvr name       NombreDvr, nombreDvr, Nombre DVR, NombreDVR, key
//	camera         NumeroCamara, numeroCamara
//	client         ClientId, clientId
//	cashier        CashierId, cashierId
//	reason         Reason, reason
//	events         Events, events
//	duration       Duration, duration
//	start          StartTime, startTime, Inicio
//	end            EndTime, endTime, Fin
//	payment        PaymentMethod, paymentMethod, Payment Method
//	type           Type, type
//	log date       LogDate, logDate
//	created        CreatedAt, createdAt
//	brand          Marca, marca
//	ip             Ip, IP, ip
//	amount due     Monto Pago, MontoPago, montoPago
//	payment link   Link Pago, LinkPago, linkPago
//
// Missing or oddly typed values fall back to the field's zero value; the
// decoder never fails on a record it does not fully understand.

func pickString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			switch t := v.(type) {
			case string:
				return strings.TrimSpace(t)
			case float64:
				return strconv.FormatFloat(t, 'f', -1, 64)
			case bool:
				return strconv.FormatBool(t)
			}
		}
	}
	return ""
}

func pickFloat(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			switch t := v.(type) {
			case float64:
				return t
			case string:
				if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
					return f
				}
			}
		}
	}
	return 0
}

func pickInt(m map[string]any, keys ...string) int64 {
	return int64(pickFloat(m, keys...))
}

// timeLayouts the upstream has been observed to use, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func pickTime(m map[string]any, keys ...string) time.Time {
	s := pickString(m, keys...)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DecodeRecord maps one raw upstream payload object into the canonical
// TransactionRecord shape.
func DecodeRecord(m map[string]any) TransactionRecord {
	return TransactionRecord{
		ID:              pickInt(m, "Id", "id", "ID"),
		DeviceID:        pickString(m, "IdDispositivo", "idDispositivo", "ID Dispositivo", "ID"),
		DVRName:         pickString(m, "NombreDvr", "nombreDvr", "Nombre DVR", "NombreDVR", "key"),
		CameraNumber:    int(pickInt(m, "NumeroCamara", "numeroCamara")),
		ClientID:        pickString(m, "ClientId", "clientId"),
		CashierID:       pickString(m, "CashierId", "cashierId"),
		Reason:          pickString(m, "Reason", "reason"),
		Events:          pickString(m, "Events", "events"),
		DurationSeconds: pickFloat(m, "Duration", "duration"),
		StartTime:       pickTime(m, "StartTime", "startTime", "Inicio"),
		EndTime:         pickTime(m, "EndTime", "endTime", "Fin"),
		PaymentMethod:   pickString(m, "PaymentMethod", "paymentMethod", "Payment Method"),
		Type:            pickString(m, "Type", "type"),
		LogDate:         pickTime(m, "LogDate", "logDate"),
		CreatedAt:       pickTime(m, "CreatedAt", "createdAt"),
	}
}

// DecodeRecords maps a raw list, skipping entries that are not objects.
func DecodeRecords(raw []any) []TransactionRecord {
	if len(raw) == 0 {
		return nil
	}
	out := make([]TransactionRecord, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, DecodeRecord(m))
	}
	return out
}

// DecodeDeviceAccount maps one raw DVR payment object into DeviceAccount.
func DecodeDeviceAccount(m map[string]any) DeviceAccount {
	return DeviceAccount{
		Name:        pickString(m, "Nombre DVR", "NombreDVR", "key"),
		Brand:       pickString(m, "Marca", "marca"),
		IP:          pickString(m, "Ip", "IP", "ip"),
		AmountDue:   pickFloat(m, "Monto Pago", "MontoPago", "montoPago"),
		PaymentLink: pickString(m, "Link Pago", "LinkPago", "linkPago"),
		DeviceID:    pickString(m, "ID Dispositivo", "IdDispositivo", "ID", "id"),
	}
}

// DecodeDeviceAccounts maps a raw list, skipping entries that are not objects.
func DecodeDeviceAccounts(raw []any) []DeviceAccount {
	if len(raw) == 0 {
		return nil
	}
	out := make([]DeviceAccount, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, DecodeDeviceAccount(m))
	}
	return out
}

// DecodeUserProfile maps the validator response payload into UserProfile.
// The status defaults to "A" (active) when absent, matching upstream.
func DecodeUserProfile(m map[string]any) UserProfile {
	p := UserProfile{
		Email:      pickString(m, "correoUsuaWeb", "CorreoUsuaWeb", "email"),
		FullName:   pickString(m, "nombreUsuaWeb", "NombreUsuaWeb", "fullName"),
		Status:     pickString(m, "estadoUsuaWeb", "EstadoUsuaWeb", "estado"),
		LastAccess: pickString(m, "ultimoAccesoUsuaWeb", "UltimoAccesoUsuaWeb", "ultimoAcceso"),
	}
	if p.Status == "" {
		p.Status = "A"
	}
	return p
}
