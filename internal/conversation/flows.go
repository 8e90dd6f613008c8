package conversation

import (
	"fmt"
	"strings"

	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
)

// Flow carries the customer-facing copy for one industry. Menu is a format
// template taking the tenant's display name.
type Flow struct {
	Menu     string
	Services string
	Pricing  string
}

// RenderMenu substitutes the tenant name into the menu template.
func (f Flow) RenderMenu(name string) string {
	return fmt.Sprintf(f.Menu, name)
}

// Catalog maps industries to their flows. The fallback entry (keyed by
// tenancy.IndustryOther) is required; Lookup never fails.
type Catalog map[tenancy.Industry]Flow

// Lookup returns the flow for the industry, or the fallback.
func (c Catalog) Lookup(industry tenancy.Industry) Flow {
	if flow, ok := c[industry]; ok {
		return flow
	}
	return c[tenancy.IndustryOther]
}

// DefaultCatalog returns the built-in industry copy.
func DefaultCatalog() Catalog {
	return Catalog{
		tenancy.IndustryRestaurant: {
			Menu: strings.TrimSpace(`
👋 Welcome to *%s* 🍽️

1️⃣ Book a Table
2️⃣ Menu & Prices
3️⃣ Location & Hours
4️⃣ Contact Us
5️⃣ Exit

Reply with a number 👇`),
			Services: "🍽️ Our Services:\n• Dine-in\n• Takeaway\n• Delivery\n• Private Events\n• Catering",
			Pricing:  "💰 Table reservations are free. À la carte menu starts at ₹250.",
		},
		tenancy.IndustryClinic: {
			Menu: strings.TrimSpace(`
👋 Welcome to *%s* 🏥

1️⃣ Book Appointment
2️⃣ Services & Fees
3️⃣ Location & Hours
4️⃣ Contact Us
5️⃣ Exit

Reply with a number 👇`),
			Services: "🏥 Our Services:\n• General Consultation\n• Specialist Visit\n• Health Checkup\n• Vaccination\n• Lab Tests",
			Pricing:  "💰 General consultation: ₹500. Specialist visits start at ₹1000.",
		},
		tenancy.IndustrySalon: {
			Menu: strings.TrimSpace(`
👋 Welcome to *%s* 💇

1️⃣ Book Appointment
2️⃣ Services & Prices
3️⃣ Location & Hours
4️⃣ Contact Us
5️⃣ Exit

Reply with a number 👇`),
			Services: "💇 Our Services:\n• Haircut & Styling\n• Coloring\n• Facial\n• Manicure/Pedicure\n• Massage",
			Pricing:  "💰 Haircuts from ₹300. Packages start at ₹1000.",
		},
		tenancy.IndustryGym: {
			Menu: strings.TrimSpace(`
👋 Welcome to *%s* 💪

1️⃣ Book Session
2️⃣ Plans & Classes
3️⃣ Location & Hours
4️⃣ Contact Us
5️⃣ Exit

Reply with a number 👇`),
			Services: "💪 Our Services:\n• Personal Training\n• Group Classes\n• Yoga\n• CrossFit\n• Nutrition Counseling",
			Pricing:  "💰 Monthly membership from ₹1500. First trial session is free.",
		},
		tenancy.IndustryRealEstate: {
			Menu: strings.TrimSpace(`
👋 Welcome to *%s* 🏠

1️⃣ Schedule Visit
2️⃣ Property Listings
3️⃣ Location & Hours
4️⃣ Contact Us
5️⃣ Exit

Reply with a number 👇`),
			Services: "🏠 Our Services:\n• Residential Listings\n• Commercial Spaces\n• Site Visits\n• EMI Assistance",
			Pricing:  "💰 Site visits are free. Brokerage details shared on enquiry.",
		},
		tenancy.IndustryOther: {
			Menu: strings.TrimSpace(`
👋 Welcome to *%s* 🚀

1️⃣ Book Appointment
2️⃣ Our Services
3️⃣ Location & Hours
4️⃣ Contact Us
5️⃣ Exit

Reply with a number 👇`),
			Services: "📋 Check our website for the complete list of services.",
			Pricing:  "💰 Basic consultation: ₹500. Premium services start at ₹1000.",
		},
	}
}
