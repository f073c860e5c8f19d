// Package lettertype holds the static catalog of letters students can
// request. The catalog is fixed at startup; there is no runtime mutation.
package lettertype

// LetterType describes one requestable letter: its short code, display
// metadata and the supplementary fields a request must carry.
type LetterType struct {
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	RequiredFields []string `json:"required_fields"`
}

// Registry is a read-only lookup table of letter types keyed by code.
type Registry struct {
	types  []LetterType
	byCode map[string]LetterType
}

// NewRegistry builds a registry from the given types. Pass Catalog() for the
// standard campus catalog.
func NewRegistry(types []LetterType) *Registry {
	byCode := make(map[string]LetterType, len(types))
	for _, t := range types {
		byCode[t.Code] = t
	}
	return &Registry{types: types, byCode: byCode}
}

// Get returns the letter type for code, or false when the code is unknown.
func (r *Registry) Get(code string) (LetterType, bool) {
	t, ok := r.byCode[code]
	return t, ok
}

// Valid reports whether code names a known letter type.
func (r *Registry) Valid(code string) bool {
	_, ok := r.byCode[code]
	return ok
}

// All returns every letter type in catalog order.
func (r *Registry) All() []LetterType {
	out := make([]LetterType, len(r.types))
	copy(out, r.types)
	return out
}

// MissingFields returns the required fields of code that are absent or empty
// in data, in catalog order.
func (r *Registry) MissingFields(code string, data map[string]string) []string {
	t, ok := r.byCode[code]
	if !ok {
		return nil
	}
	var missing []string
	for _, f := range t.RequiredFields {
		if data == nil || data[f] == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Catalog returns the standard campus letter catalog.
func Catalog() []LetterType {
	return []LetterType{
		{Code: "SKA", Name: "Surat Keterangan Aktif Kuliah", Description: "Surat keterangan bahwa mahasiswa masih aktif kuliah", RequiredFields: []string{"semester", "tahun_akademik"}},
		{Code: "SKPI", Name: "Surat Keterangan Pendamping Ijazah", Description: "Surat keterangan pendamping ijazah", RequiredFields: []string{"ipk", "jumlah_sks"}},
		{Code: "SKL", Name: "Surat Keterangan Lulus", Description: "Surat keterangan kelulusan mahasiswa", RequiredFields: []string{"tanggal_lulus", "ipk"}},
		{Code: "SKMB", Name: "Surat Keterangan Mahasiswa Baru", Description: "Surat keterangan untuk mahasiswa baru", RequiredFields: []string{"tahun_masuk", "jalur_masuk"}},
		{Code: "SKP", Name: "Surat Keterangan Penelitian", Description: "Surat izin penelitian untuk tugas akhir/skripsi", RequiredFields: []string{"judul_penelitian", "lokasi_penelitian", "tanggal_mulai", "tanggal_selesai"}},
		{Code: "SKM", Name: "Surat Keterangan Magang", Description: "Surat pengantar magang/PKL", RequiredFields: []string{"nama_perusahaan", "alamat_perusahaan", "tanggal_mulai", "tanggal_selesai"}},
		{Code: "SKCUTI", Name: "Surat Keterangan Cuti Akademik", Description: "Surat keterangan cuti akademik", RequiredFields: []string{"semester_cuti", "alasan_cuti"}},
		{Code: "SKPB", Name: "Surat Keterangan Pindah Kampus", Description: "Surat keterangan untuk pindah ke kampus lain", RequiredFields: []string{"kampus_tujuan", "alasan_pindah"}},
		{Code: "SKBS", Name: "Surat Keterangan Bebas Sanksi", Description: "Surat keterangan bebas dari sanksi akademik", RequiredFields: nil},
		{Code: "SKBP", Name: "Surat Keterangan Bebas Pinjaman", Description: "Surat keterangan bebas pinjaman perpustakaan", RequiredFields: nil},
		{Code: "SKT", Name: "Surat Keterangan Transkrip Nilai", Description: "Surat pengantar transkrip nilai", RequiredFields: []string{"semester_terakhir", "ipk"}},
		{Code: "SKBEA", Name: "Surat Keterangan Beasiswa", Description: "Surat keterangan penerima beasiswa", RequiredFields: []string{"jenis_beasiswa", "periode"}},
		{Code: "SKORG", Name: "Surat Keterangan Organisasi", Description: "Surat keterangan aktif di organisasi kampus", RequiredFields: []string{"nama_organisasi", "jabatan", "periode"}},
		{Code: "SKPRES", Name: "Surat Keterangan Prestasi", Description: "Surat keterangan prestasi akademik/non-akademik", RequiredFields: []string{"jenis_prestasi", "tingkat", "tahun"}},
		{Code: "SKIZIN", Name: "Surat Izin Kegiatan", Description: "Surat izin untuk mengadakan kegiatan", RequiredFields: []string{"nama_kegiatan", "tanggal_kegiatan", "tempat_kegiatan"}},
		{Code: "SKPENG", Name: "Surat Pengantar", Description: "Surat pengantar umum", RequiredFields: []string{"tujuan", "keperluan"}},
		{Code: "SKREK", Name: "Surat Rekomendasi", Description: "Surat rekomendasi dari dosen/fakultas", RequiredFields: []string{"tujuan_rekomendasi", "keperluan"}},
		{Code: "SKWIS", Name: "Surat Keterangan Wisuda", Description: "Surat keterangan untuk keperluan wisuda", RequiredFields: []string{"periode_wisuda", "tanggal_lulus"}},
		{Code: "SKALUM", Name: "Surat Keterangan Alumni", Description: "Surat keterangan sebagai alumni", RequiredFields: []string{"tahun_lulus", "gelar"}},
		{Code: "SKDUP", Name: "Surat Keterangan Duplikat Ijazah", Description: "Surat pengantar untuk duplikat ijazah yang hilang", RequiredFields: []string{"nomor_ijazah_asli", "alasan_duplikat"}},
		{Code: "SKKHS", Name: "Surat Keterangan KHS", Description: "Surat pengantar Kartu Hasil Studi", RequiredFields: []string{"semester"}},
		{Code: "SKKRS", Name: "Surat Keterangan KRS", Description: "Surat pengantar Kartu Rencana Studi", RequiredFields: []string{"semester"}},
		{Code: "SKPMB", Name: "Surat Keterangan Pembayaran", Description: "Surat keterangan lunas pembayaran", RequiredFields: []string{"jenis_pembayaran", "periode"}},
		{Code: "SKVER", Name: "Surat Keterangan Verifikasi Data", Description: "Surat verifikasi data mahasiswa", RequiredFields: nil},
		{Code: "SKLAB", Name: "Surat Izin Penggunaan Laboratorium", Description: "Surat izin menggunakan fasilitas laboratorium", RequiredFields: []string{"nama_lab", "tanggal_penggunaan", "keperluan"}},
		{Code: "SKPUS", Name: "Surat Izin Penggunaan Perpustakaan", Description: "Surat izin akses perpustakaan", RequiredFields: []string{"keperluan"}},
		{Code: "SKSEM", Name: "Surat Keterangan Seminar", Description: "Surat keterangan mengikuti seminar", RequiredFields: []string{"nama_seminar", "tanggal_seminar"}},
		{Code: "SKKOM", Name: "Surat Keterangan Kompetisi", Description: "Surat keterangan mengikuti kompetisi", RequiredFields: []string{"nama_kompetisi", "tingkat", "tanggal"}},
		{Code: "SKKP", Name: "Surat Keterangan Kerja Praktek", Description: "Surat pengantar kerja praktek", RequiredFields: []string{"nama_perusahaan", "alamat_perusahaan", "tanggal_mulai", "tanggal_selesai"}},
		{Code: "SKTA", Name: "Surat Keterangan Tugas Akhir", Description: "Surat keterangan sedang mengerjakan tugas akhir", RequiredFields: []string{"judul_ta", "dosen_pembimbing"}},
		{Code: "SKMHS", Name: "Surat Keterangan Mahasiswa", Description: "Surat keterangan umum sebagai mahasiswa", RequiredFields: []string{"keperluan"}},
	}
}
