package commerce

import "github.com/studioveld/storefront-backend/pkg/types"

func typesOrderFixture() types.OrderCreate {
	return types.OrderCreate{
		PaymentMethod:      "stripe",
		PaymentMethodTitle: "Card (Stripe)",
		SetPaid:            true,
		Billing: types.Address{
			FirstName: "Ada",
			LastName:  "Vermeer",
			Address1:  "Keizersgracht 12",
			City:      "Amsterdam",
			Postcode:  "1015 CS",
			Country:   "NL",
			Email:     "ada@example.com",
		},
		Shipping: types.Address{
			FirstName: "Ada",
			LastName:  "Vermeer",
			Address1:  "Keizersgracht 12",
			City:      "Amsterdam",
			Postcode:  "1015 CS",
			Country:   "NL",
		},
		LineItems: []types.OrderLineItem{
			{ProductID: 7, Name: "Linen Tote", Quantity: 2, Total: "49.00"},
		},
	}
}
