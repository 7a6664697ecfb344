package recommendation

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

const resolvePlaceTool = "resolvePlace"

const systemInstruction = `Anda adalah seorang ahli perjalanan yang berspesialisasi dalam pariwisata Indonesia.`

func recommendationPrompt(req types.PreferenceRequest, modelDriven bool) string {
	media := "Jangan membuat gambar, biarkan imageUrl kosong."
	if modelDriven {
		media = fmt.Sprintf(`Untuk setiap destinasi, panggil fungsi %s dengan nama destinasi,
  lalu isi imageUrl, latitude, dan longitude dari hasil fungsi tersebut.`, resolvePlaceTool)
	}
	return fmt.Sprintf(`Berdasarkan preferensi pengguna, rekomendasikan beberapa destinasi wisata di Indonesia.
  Sertakan juga deskripsi singkat setiap destinasi, perkiraan biaya dari lokasi pengguna, dan tipe destinasi (contoh: Pantai, Gunung, Museum, Kuliner, Sejarah).
  Gunakan sumber daya blog perjalanan saat ini untuk menyusun rekomendasi Anda.

  Preferensi Pengguna:
  - Anggaran: %s
  - Minat: %s
  - Jumlah Orang: %s
  - Lokasi: %s

  Harap berikan destinasi STRICTLY sebagai objek JSON berikut. %s
  {
    "destinations": [
      {
        "name": "Nama destinasi",
        "description": "Deskripsi singkat tentang destinasi",
        "estimatedCost": "Perkiraan biaya perjalanan dari lokasi pengguna",
        "destinationType": "Tipe destinasi",
        "imageUrl": "",
        "latitude": <float atau null>,
        "longitude": <float atau null>
      }
    ]
  }`, req.Budget, req.Interests, req.NumberOfPeople, req.Location, media)
}

func destinationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"destinations": {
				Type:        genai.TypeArray,
				Description: "Daftar destinasi wisata yang direkomendasikan.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":            {Type: genai.TypeString, Description: "Nama destinasi."},
						"description":     {Type: genai.TypeString, Description: "Deskripsi singkat tentang destinasi."},
						"estimatedCost":   {Type: genai.TypeString, Description: "Perkiraan biaya perjalanan ke destinasi dari lokasi pengguna."},
						"destinationType": {Type: genai.TypeString, Description: "Tipe destinasi (misalnya, Pantai, Gunung, Museum, Kuliner)."},
					},
					Required: []string{"name", "description", "estimatedCost", "destinationType"},
				},
			},
		},
		Required: []string{"destinations"},
	}
}

func resolvePlaceDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        resolvePlaceTool,
		Description: "Cari foto dan koordinat sebuah tempat wisata berdasarkan namanya.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {Type: genai.TypeString, Description: "Nama tempat, misalnya Candi Borobudur."},
			},
			Required: []string{"query"},
		},
	}
}
