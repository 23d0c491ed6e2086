package common

import (
	"log"
	awslib "vbs/src/lib/aws"
	"vbs/src/services"
	"vbs/src/types"

	"github.com/tidwall/gjson"
)

// PaymentConfirmationsConsumer listens for settlement messages published by
// the payment gateway bridge and marks the referenced bookings as paid. The
// state machine decides whether the transition is still legal; a booking
// cancelled while the message was in flight is rejected there.
func PaymentConfirmationsConsumer(sm *services.StateMachine) {
	qname := "PaymentConfirmations"
	log.Printf("%s: Listening for messages...", qname)
	c := awslib.NewSQSConsumer(qname, func(body string) {
		if !gjson.Valid(body) {
			log.Printf("[%s]: Received invalid json body. Aborting", qname)
			return
		}
		message := gjson.Get(body, "Message").String()
		if message == "" {
			message = body
		}
		id := gjson.Get(message, "booking_id")
		if !id.Exists() {
			log.Printf("[%s]: Message carries no booking_id. Aborting", qname)
			return
		}
		bookingID := uint(id.Uint())
		provider := gjson.Get(message, "provider").String()
		log.Printf("[%s]: booking=%d provider=%s", qname, bookingID, provider)
		go func() {
			_, err := sm.Transition(bookingID, types.BOOKING_PAID, types.ACTOR_SYSTEM, nil, "Payment confirmed")
			if err != nil {
				log.Printf("[%s]: Error marking booking %d paid: %s\n", qname, bookingID, err.Error())
			}
		}()
	})
	go c.Listen()
}
