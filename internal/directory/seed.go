package directory

// SeedLocations returns the demo clinic sites.
func SeedLocations() []Location {
	return []Location{
		{ID: "loc_1", Name: "Optum Clinic - Downtown", Address: "123 Main St", City: "Chicago", State: "IL", Zip: "60601", Timezone: "America/Chicago"},
		{ID: "loc_2", Name: "Optum Clinic - North", Address: "500 North Ave", City: "Chicago", State: "IL", Zip: "60640", Timezone: "America/Chicago"},
	}
}

// SeedProviders returns the demo provider roster.
func SeedProviders() []Provider {
	return []Provider{
		{ID: "prov_1", Name: "Dr. Maya Patel", Type: PrimaryCare, LocationID: "loc_1", AcceptsVirtual: true, SchedulingAccess: OpenScheduling},
		{ID: "prov_2", Name: "Dr. James Lee", Type: UrgentCare, LocationID: "loc_1", AcceptsVirtual: true, SchedulingAccess: DirectScheduling},
		{ID: "prov_3", Name: "Dr. Sofia Kim", Type: Dermatology, LocationID: "loc_2", AcceptsVirtual: true, SchedulingAccess: DirectScheduling},
		{ID: "prov_4", Name: "Dr. Ethan Ross", Type: Orthopedics, LocationID: "loc_2", AcceptsVirtual: false, SchedulingAccess: DirectScheduling},
		{ID: "prov_5", Name: "Dr. Elena Garcia", Type: PrimaryCare, LocationID: "loc_1", AcceptsVirtual: true, SchedulingAccess: OpenScheduling},
		{ID: "prov_6", Name: "Dr. Marcus Chen", Type: PrimaryCare, LocationID: "loc_2", AcceptsVirtual: false, SchedulingAccess: DirectScheduling},
		{ID: "prov_7", Name: "Dr. Priya Nair", Type: Cardiology, LocationID: "loc_1", AcceptsVirtual: false, SchedulingAccess: DirectScheduling},
		{ID: "prov_8", Name: "Dr. Samuel Ortiz", Type: Cardiology, LocationID: "loc_2", AcceptsVirtual: true, SchedulingAccess: DirectScheduling},
		{ID: "prov_9", Name: "Dr. Hannah Schultz", Type: Neurology, LocationID: "loc_1", AcceptsVirtual: true, SchedulingAccess: DirectScheduling},
		{ID: "prov_10", Name: "Dr. Amir Rahman", Type: Neurology, LocationID: "loc_2", AcceptsVirtual: false, SchedulingAccess: DirectScheduling},
		{ID: "prov_11", Name: "Dr. John Smith", Type: PrimaryCare, LocationID: "loc_1", AcceptsVirtual: true, SchedulingAccess: OpenScheduling},
		{ID: "prov_12", Name: "Dr. Alicia Johnson", Type: PrimaryCare, LocationID: "loc_2", AcceptsVirtual: true, SchedulingAccess: DirectScheduling},
		{ID: "prov_13", Name: "Dr. Marcus Johnson", Type: Orthopedics, LocationID: "loc_2", AcceptsVirtual: false, SchedulingAccess: DirectScheduling},
	}
}
