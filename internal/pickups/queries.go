package pickups

// Operation names understood by the Ridwell API.
const (
	OperationUser                        = "user"
	OperationUpcomingSubscriptionPickups = "upcomingSubscriptionPickups"
	OperationSubscriptionPickupQuote     = "subscriptionPickupQuote"
	OperationUpdateSubscriptionPickup    = "updateSubscriptionPickup"
)

const queryUser = `
query user($id: ID!) {
  user(id: $id) {
    fullName
    email
    phone
    accounts {
      id
      address {
        street1
        city
        subdivision
        postalCode
      }
      activeSubscription {
        id
        state
      }
    }
  }
}
`

const queryUpcomingSubscriptionPickups = `
query upcomingSubscriptionPickups($subscriptionId: ID!) {
  upcomingSubscriptionPickups(subscriptionId: $subscriptionId) {
    ...SubscriptionPickupData
    __typename
  }
}

fragment SubscriptionPickupData on SubscriptionPickup {
  id
  type
  state
  pickupOn
  pickupProductSelections {
    pickupOfferPickupProduct {
      pickupOffer {
        id
        priority
        category {
          name
          __typename
        }
        __typename
      }
      pickupProduct {
        id
        __typename
      }
      __typename
    }
    quantity
    __typename
  }
  __typename
}
`

const querySubscriptionPickupQuote = `
query subscriptionPickupQuote($input: SubscriptionPickupQuoteInput!) {
  subscriptionPickupQuote(input: $input) {
    totalCents
    addOnEstimatedCents
    __typename
  }
}
`

const queryUpdateSubscriptionPickup = `
mutation updateSubscriptionPickup($input: UpdateSubscriptionPickupInput!) {
  updateSubscriptionPickup(input: $input) {
    subscriptionPickup {
      id
      type
      state
      pickupOn
    }
  }
}
`
