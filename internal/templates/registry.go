// Package templates assigns a marketing page template to a business and
// builds the pre-filled magic link pointing at it.
package templates

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Entry pairs a template slug with the lowercase keywords that select it.
// Duplicate keywords inside one entry are kept; each occurrence scores.
type Entry struct {
	Slug     string   `yaml:"slug"`
	Keywords []string `yaml:"keywords"`
}

// Registry is the ordered list of templates. Order decides both the
// first-match-wins keyword scan and ties in the name scan, so it must never
// be built from map iteration.
type Registry []Entry

// Slugs returns the template slugs in registry order.
func (r Registry) Slugs() []string {
	out := make([]string, len(r))
	for i, e := range r {
		out[i] = e.Slug
	}
	return out
}

// Contains reports whether slug is registered.
func (r Registry) Contains(slug string) bool {
	for _, e := range r {
		if e.Slug == slug {
			return true
		}
	}
	return false
}

// DefaultRegistry returns a copy of the built-in registry.
func DefaultRegistry() Registry {
	out := make(Registry, len(builtin))
	for i, e := range builtin {
		out[i] = Entry{Slug: e.Slug, Keywords: append([]string(nil), e.Keywords...)}
	}
	return out
}

type registryFile struct {
	Templates []Entry `yaml:"templates"`
}

// LoadRegistryFile reads an ordered registry from a YAML file of the form
//
//	templates:
//	  - slug: warsztat-pro
//	    keywords: [warsztat, mechanik]
//
// Keywords are lowercased and trimmed; empty keywords are dropped.
func LoadRegistryFile(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "templates: read registry %s", path)
	}

	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "templates: parse registry %s", path)
	}
	if len(f.Templates) == 0 {
		return nil, eris.Errorf("templates: registry %s has no templates", path)
	}

	reg := make(Registry, 0, len(f.Templates))
	seen := make(map[string]bool, len(f.Templates))
	for i, e := range f.Templates {
		slug := strings.TrimSpace(e.Slug)
		if slug == "" {
			return nil, eris.Errorf("templates: registry %s entry %d has no slug", path, i)
		}
		if seen[slug] {
			return nil, eris.Errorf("templates: registry %s lists %q twice", path, slug)
		}
		seen[slug] = true

		kws := make([]string, 0, len(e.Keywords))
		for _, kw := range e.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		reg = append(reg, Entry{Slug: slug, Keywords: kws})
	}
	return reg, nil
}

// builtin is the default template registry. Polish grammatical variants are
// enumerated explicitly; matching does no stemming.
var builtin = Registry{
	{
		Slug: "warsztat-pro",
		Keywords: []string{
			// Polish
			"warsztat", "warsztaty", "samochod", "samochodowy", "samochodowe", "auto", "auta",
			"mechanik", "mechanika", "naprawa", "naprawy", "serwis", "serwisy", "wulkanizacja",
			"opony", "opon", "blacharstwo", "lakiernictwo", "lakiernik", "blacharz", "stacja kontroli",
			"pojazdow", "pojazd", "motoryzacja", "moto", "garage", "detailing", "autodetailing",
			"auto detailing", "detailingowe", "auto spa", "car spa", "myjnia", "kosmetyka aut",
			"kosmetyka samochodowa", "pielęgnacja aut", "pielęgnacja samochodów", "pielegnacja",
			"ceramiczna", "powłoka ceramiczna", "powloka", "kwarcowa", "wosk", "woskowanie",
			"polerowanie", "korekta lakieru", "renowacja lakieru", "czyszczenie tapicerki",
			"pranie tapicerki", "czyszczenie wnętrza", "niewidzialna wycieraczka", "konserwacja skóry",
			"zabezpieczenie lakieru", "ppf", "folia ochronna", "przyciemnianie szyb", "odgrzybianie",
			"elektryka", "elektryk", "klimatyzacja", "tłumiki", "szyby", "holowanie", "pomoc drogowa",
			"części", "akcesoria", "tuning", "offroad", "4x4", "skrzynie biegów", "regeneracja",
			// English
			"workshop", "repair", "service", "car", "cars", "auto", "automotive", "mechanic",
			"garage", "tires", "tyres", "body shop", "paint shop", "detailing", "car detailing",
			"auto detailing", "auto spa", "car spa", "wash", "car wash", "towing", "ceramic coating",
			"paint correction", "polishing", "interior cleaning", "upholstery cleaning", "ppf",
			"window tinting",
		},
	},
	{
		Slug: "bistro-modern",
		Keywords: []string{
			// Polish
			"restauracja", "restauracje", "bistro", "bar", "bary", "jadłodajnia", "jadlodajnia",
			"kawiarnia", "kawiarnie", "cafe", "kafejka", "cukiernia", "piekarnia", "pieczywo",
			"pizza", "pizzeria", "pizzerie", "włoska", "wloska", "kuchnia", "smaki", "obiady",
			"lunch", "kolacje", "śniadania", "sniadania", "burger", "burgery", "kebab", "keby",
			"sushi", "ramen", "azjatycka", "chińska", "chinska", "wietnamska", "tajska", "indie",
			"pierogi", "pierogarnia", "naleśniki", "nalesniki", "pub", "klub", "wino", "piwo",
			"alkohole", "koktajle", "drink", "lody", "lodziarnia", "gofry", "zapiekanki", "food truck",
			"catering", "dieta", "pudełkowa", "pudelkowa", "wege", "wegańska", "weganska", "zdrowa",
			// English
			"restaurant", "bistro", "bar", "cafe", "coffee", "bakery", "pastry", "pizza", "pizzeria",
			"kitchen", "cuisine", "food", "lunch", "dinner", "breakfast", "burger", "sushi", "pub",
			"club", "wine", "beer", "cocktails", "ice cream", "catering", "diet", "vegan", "healthy",
		},
	},
	{
		Slug: "helios-advise",
		Keywords: []string{
			// Polish
			"kancelaria", "kancelarie", "prawnik", "prawnicy", "adwokat", "adwokaci", "radca", "radcy",
			"prawny", "prawne", "prawo", "notariusz", "notarialna", "doradztwo", "doradca", "doradcy",
			"konsulting", "consulting", "biuro rachunkowe", "ksiegowosc", "księgowość", "księgowy",
			"ksiegowy", "podatki", "podatkowe", "finanse", "finansowe", "kredyty", "ubezpieczenia",
			"ubezpieczeniowa", "audyt", "audytor", "biegły", "biegly", "rzeczoznawca", "windykacja",
			"szkolenia", "edukacja", "kursy", "tłumacz", "tlumacz", "tłumaczenia", "tlumaczenia",
			"agencja nieruchomości", "nieruchomości", "nieruchomosci", "zarządzanie", "zarzadzanie",
			// English
			"law firm", "lawyer", "attorney", "solicitor", "legal", "notary", "advisory", "advisor",
			"consulting", "consultant", "accounting", "accountant", "bookkeeping", "tax", "taxes",
			"finance", "financial", "credit", "loans", "insurance", "audit", "auditor", "expert",
			"debt collection", "training", "education", "courses", "translator", "translation",
			"real estate", "property", "management",
		},
	},
	{
		Slug: "cyber-security",
		Keywords: []string{
			// Polish
			"informatyka", "informatyk", "it", "komputery", "komputerowy", "serwis komputerowy",
			"naprawa laptopów", "naprawa komputerów", "laptop", "pc", "software", "hardware",
			"sieci", "sieciowe", "serwery", "administrator", "admin", "bezpieczeństwo", "bezpieczenstwo",
			"cyber", "security", "ochrona", "dane", "odzyskiwanie danych", "telefony", "gsm",
			"smartfon", "tablet", "serwis gsm", "akcesoria gsm", "elektronika", "elektroniczny",
			"programowanie", "programista", "kodowanie", "web", "strony www", "hosting", "domeny",
			"kamery", "monitoring", "alarmy", "systemy alarmowe", "automatyka", "smart home",
			// English
			"informatics", "computer", "computers", "laptop", "pc", "repair", "software", "hardware",
			"network", "networking", "server", "servers", "admin", "security", "protection", "data",
			"recovery", "phone", "mobile", "smartphone", "gsm", "electronics", "programming",
			"developer", "coding", "web", "websites", "hosting", "domains", "cameras", "cctv",
			"monitoring", "alarms", "automation",
		},
	},
	{
		Slug: "landing-aplikacji",
		Keywords: []string{
			// Polish
			"aplikacja", "aplikacje", "app", "apps", "mobile", "mobilne", "saas", "startup",
			"platforma", "portal", "system", "rozwiązania", "rozwiazania", "cyfrowe", "digital",
			"technologie", "technologia", "innowacje", "innowacja", "ai", "sztuczna inteligencja",
			"machine learning", "bot", "boty", "automatyzacja", "cloud", "chmura", "big data",
			"analytics", "analiza", "narzędzia", "narzedzia", "online", "internet",
			// English
			"application", "app", "apps", "mobile", "saas", "startup", "platform", "portal", "system",
			"solutions", "digital", "technology", "tech", "innovation", "ai", "artificial intelligence",
			"bot", "automation", "cloud", "data", "analytics", "tools", "online", "internet",
		},
	},
	{
		Slug: "agencja-kreatywna",
		Keywords: []string{
			// Polish
			"marketing", "reklama", "reklamowa", "agencja", "kreatywna", "neon", "media", "group",
			"design", "designu", "branding", "brandingowa", "social media", "content", "seo",
			"sem", "ads", "kampanie", "kampania", "grafika", "graficzne", "web design",
			"tworzenie stron", "strony www", "identyfikacja wizualna", "logo", "logotyp",
			// English
			"marketing", "advertising", "agency", "creative", "media", "design", "branding",
			"social media", "content", "seo", "sem", "ads", "campaign", "graphics", "web design",
			"web development", "websites", "identity", "logo",
		},
	},
	{
		Slug: "portfolio-osobista",
		Keywords: []string{
			// Polish
			"fotograf", "fotografia", "zdjęcia", "zdjecia", "sesje", "grafik", "grafika", "design",
			"designer", "projektant", "projektowanie", "architekt", "wnętrza", "wnetrza", "ogrody",
			"artysta", "sztuka", "malarz", "rzeźbiarz", "rekodzieło", "rękodzieło", "handmade",
			"muzyk", "zespół", "zespol", "dj", "wodzirej", "trener", "trener personalny", "coach",
			"nauczyciel", "korepetycje", "tłumacz przysięgły", "freelancer", "wolny strzelec",
			"bloger", "blog", "vlog", "influencer", "twórca", "tworca", "wideo", "film", "montaż",
			"copywriter", "pisarz", "dziennikarz", "redaktor", "wizażystka", "wizazystka", "makijaż",
			"fryzjerka", "stylista", "stylistka",
			// English
			"photographer", "photography", "photos", "graphic", "graphics", "design", "designer",
			"architect", "interior", "garden", "artist", "art", "painter", "sculptor", "craft",
			"handmade", "musician", "band", "dj", "trainer", "personal trainer", "coach", "teacher",
			"tutor", "freelancer", "blogger", "vlog", "influencer", "creator", "video", "film",
			"editing", "copywriter", "writer", "journalist", "editor", "makeup", "makeup artist",
			"hairdresser", "stylist",
		},
	},
}
