package preferences

type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
	// Locale is the speech locale used for this language.
	Locale string `json:"locale"`
}

var Languages = []Language{
	{Code: "en", Name: "English", NativeName: "English", Locale: "en-US"},
	{Code: "hi", Name: "Hindi", NativeName: "हिंदी", Locale: "hi-IN"},
	{Code: "bn", Name: "Bengali", NativeName: "বাংলা", Locale: "bn-IN"},
	{Code: "te", Name: "Telugu", NativeName: "తెలుగు", Locale: "te-IN"},
	{Code: "kn", Name: "Kannada", NativeName: "ಕನ್ನಡ", Locale: "kn-IN"},
	{Code: "ml", Name: "Malayalam", NativeName: "മലയാളം", Locale: "ml-IN"},
	{Code: "ta", Name: "Tamil", NativeName: "தமிழ்", Locale: "ta-IN"},
}

const DefaultLanguage = "en"

func findLanguage(code string) (Language, bool) {
	for _, l := range Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

type VoiceSettings struct {
	Enabled  bool    `json:"enabled"`
	Rate     float64 `json:"rate"`
	Pitch    float64 `json:"pitch"`
	Volume   float64 `json:"volume"`
	Language string  `json:"language"`
}

func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{Enabled: true, Rate: 0.8, Pitch: 1, Volume: 0.8, Language: "en-US"}
}

// VoiceUpdate is a partial update; nil fields keep their saved value.
type VoiceUpdate struct {
	Enabled  *bool    `json:"enabled"`
	Rate     *float64 `json:"rate"`
	Pitch    *float64 `json:"pitch"`
	Volume   *float64 `json:"volume"`
	Language *string  `json:"language"`
}

type Notifications struct {
	EmergencyAlerts  bool `json:"emergencyAlerts"`
	SystemUpdates    bool `json:"systemUpdates"`
	PatientReminders bool `json:"patientReminders"`
	DataSync         bool `json:"dataSync"`
}

func DefaultNotifications() Notifications {
	return Notifications{EmergencyAlerts: true, SystemUpdates: true, PatientReminders: false, DataSync: true}
}

var (
	SyncFrequencies = []string{"5min", "15min", "30min", "1hour"}
	StorageOptions  = []string{"1GB", "2GB", "5GB", "10GB"}
)

// OfflineSettings are stored for clients; OfflineStorage is not enforced.
type OfflineSettings struct {
	AutoSync       bool   `json:"autoSync"`
	SyncFrequency  string `json:"syncFrequency"`
	OfflineStorage string `json:"offlineStorage"`
}

func DefaultOfflineSettings() OfflineSettings {
	return OfflineSettings{AutoSync: true, SyncFrequency: "15min", OfflineStorage: "2GB"}
}
