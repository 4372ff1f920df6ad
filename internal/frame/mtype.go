package frame

import "github.com/brocaar/lorawan"

// rejoinRequest is MType 110 (RFU in LoRaWAN 1.0).
const rejoinRequest lorawan.MType = 6

var mTypeLabels = map[lorawan.MType]string{
	lorawan.JoinRequest:         "Join Request",
	lorawan.JoinAccept:          "Join Accept",
	lorawan.UnconfirmedDataUp:   "Unconfirmed Data Up",
	lorawan.UnconfirmedDataDown: "Unconfirmed Data Down",
	lorawan.ConfirmedDataUp:     "Confirmed Data Up",
	lorawan.ConfirmedDataDown:   "Confirmed Data Down",
	rejoinRequest:               "Rejoin Request",
	lorawan.Proprietary:         "Proprietary",
}

// MessageTypeLabel returns the human-readable label of the given message
// type.
func MessageTypeLabel(m lorawan.MType) string {
	if l, ok := mTypeLabels[m]; ok {
		return l
	}
	return "Unknown"
}
