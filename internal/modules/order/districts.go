package order

// Districts is the fixed list a delivery area must be chosen from. Dhaka leads;
// the rest are alphabetical.
var Districts = []string{
	"Dhaka",
	"Bagerhat", "Bandarban", "Barguna", "Barishal", "Bhola", "Bogra", "Brahmanbaria",
	"Chandpur", "Chapainawabganj", "Chattogram", "Chuadanga", "Cox's Bazar", "Cumilla",
	"Dinajpur", "Faridpur", "Feni", "Gaibandha", "Gazipur", "Gopalganj", "Habiganj",
	"Jamalpur", "Jashore", "Jhalokathi", "Jhenaidah", "Joypurhat", "Khagrachhari",
	"Khulna", "Kishoreganj", "Kurigram", "Kushtia", "Lakshmipur", "Lalmonirhat",
	"Madaripur", "Magura", "Manikganj", "Meherpur", "Moulvibazar", "Munshiganj",
	"Mymensingh", "Naogaon", "Narail", "Narayanganj", "Narsingdi", "Natore",
	"Netrokona", "Nilphamari", "Noakhali", "Pabna", "Panchagarh", "Patuakhali",
	"Pirojpur", "Rajbari", "Rajshahi", "Rangamati", "Rangpur", "Satkhira",
	"Shariatpur", "Sherpur", "Sirajganj", "Sunamganj", "Sylhet", "Tangail", "Thakurgaon",
}

var districtSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Districts))
	for _, d := range Districts {
		m[d] = struct{}{}
	}
	return m
}()

func IsDistrict(s string) bool {
	_, ok := districtSet[s]
	return ok
}
