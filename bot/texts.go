package bot

// Replies are in Indonesian, the language of the bot's users.
const (
	textWelcome = "👋 Selamat datang di Reward Bot!\n\n" +
		"Gunakan /help untuk melihat semua fitur."

	textHelp = "📘 *Panduan Reward Bot*\n\n" +
		"/start - Mulai bot & inisiasi akun\n" +
		"/help - Menampilkan panduan\n" +
		"/setrewards - Buat daftar reward Anda\n" +
		"/rewards - Lihat daftar reward\n" +
		"/points - Lihat poin\n" +
		"/add <tugas> <poin> - Tambah poin dari tugas\n" +
		"/redeem <nomor> - Tukar poin dengan reward\n" +
		"/history - Lihat riwayat aktivitas\n" +
		"/cancel - Batalkan pengisian reward\n\n" +
		"Format /setrewards:\n" +
		"3 Snack kecil\n" +
		"9 BingXue\n" +
		"Ebook - 18\n"

	textSetupPrompt = "Silakan kirim _list reward_ Anda dalam satu pesan.\n" +
		"Format tiap baris:\n" +
		"<poin> <nama reward> atau <nama reward> - <poin>\n\n" +
		"Contoh:\n" +
		"3 Snack kecil\n" +
		"9 BingXue\n" +
		"Ebook - 18"

	textRewardsSaved   = "✔️ Reward berhasil disimpan! (%d reward)"
	textRewardsEmpty   = "❌ Anda belum membuat reward. Gunakan /setrewards."
	textRewardsHeader  = "🎁 *Reward Anda:*\n\n"
	textRewardLine     = "%d. %d poin → %s\n"
	textRedeemButton   = "Tukar %d"
	textPoints         = "💰 Poin Anda: %d"
	textAddUsage       = "Format: /add <nama tugas> <poin>"
	textAddBadPoints   = "Poin harus angka positif."
	textAdded          = "✔️ '%s' ditambahkan. Poin +%d.\nTotal poin: %d"
	textRedeemUsage    = "Format: /redeem <nomor>"
	textRedeemBadIndex = "Nomor reward tidak valid."
	textRedeemNoIndex  = "Nomor reward tidak ada."
	textRedeemNoPoints = "❌ Poin tidak cukup."
	textRedeemed       = "🎉 Anda berhasil redeem:\n%s (−%d poin)\nPoin tersisa: %d"
	textHistoryEmpty   = "📜 Belum ada riwayat."
	textHistoryHeader  = "📜 *Riwayat Anda:*\n\n"
	textCancelled      = "Pengisian reward dibatalkan."
	textNothingToStop  = "Tidak ada proses yang sedang berjalan."
	textCancelButton   = "❌ Batal"
	textStats          = "📊 Akun: %d\nTotal poin beredar: %d"
	textFailure        = "⚠️ Terjadi kesalahan. Silakan coba lagi nanti."
	textRateLimited    = "⏳ Terlalu cepat, coba lagi sebentar."

	textParseLine     = "❌ Format salah di baris %d (%s): %s\n\nKirim ulang daftar reward, atau /cancel untuk batal."
	textParseNoLines  = "❌ Daftar reward kosong. Kirim minimal satu baris, atau /cancel untuk batal."
	textParseTooMany  = "❌ Maksimal %d reward. Kirim ulang daftar yang lebih pendek, atau /cancel untuk batal."
	reasonMalformed   = "gunakan <poin> <nama> atau <nama> - <poin>"
	reasonBadPoints   = "poin harus angka positif"
	reasonMissingName = "nama reward kosong"
	reasonNameTooLong = "nama reward maksimal %d karakter"
)
