package bot

// Menu buttons. Reply keyboard presses arrive as plain text, so these strings are also
// the routing keys.
const (
	BtnProducts     = "📦 Mahsulotlar"
	BtnMyOrders     = "📄 Mening buyurtmalarim"
	BtnInfo         = "ℹ️ Ma'lumot"
	BtnContact      = "📞 Aloqa"
	BtnNews         = "📰 Yangiliklar"
	BtnStats        = "📊 Statistika"
	BtnOrdersList   = "🧾 Buyurtmalar ro'yxati"
	BtnBroadcast    = "📣 Xabar tarqatish"
	BtnAddProduct   = "➕ Mahsulot qo'shish"
	BtnEditProduct  = "✏️ Mahsulotni tahrirlash"
	BtnReports      = "📑 Hisobotlar"
	BtnSendPhone    = "📲 Telefon raqamni yuborish"
	BtnCancel       = "❌ Bekor qilish"
	BtnSendLocation = "📍 Lokatsiyani yuborish"
	BtnSupport      = "🆘 Qo'llab-quvvatlash"
	BtnSkip         = "⏭ O'tkazish"
	BtnBlockUsers   = "🚫 Bloklash/ochish"
	BtnBlock        = "🔒 Bloklash"
	BtnUnblock      = "🔓 Blokdan chiqarish"
	BtnCreateOrder  = "📝 Buyurtma yaratish"
)

const (
	newsTelegramURL  = "https://t.me/shrotsavdo"
	newsInstagramURL = "https://instagram.com/shrotsavdo"

	ordersPageSize  = 10
	statsTopLimit   = 100
	statsActiveDays = 30
)

const (
	infoText = "ℹ️ Bizning botda mahsulotlar haqida ma'lumot olishingiz mumkin.\n" +
		"⚖️ Mahsulotlar narxi kilogramm bo'yicha ko'rsatiladi.\n"
	contactText = "Axborot hamkorlik masalalari uchun:\n" +
		"☎️ Telefon: +998955309999\n" +
		"☎️ Telefon: +998953309999\n" +
		"📍 Manzil: Сам.Тайлок.Курганча ЗАВОД ТОННИ ГРИНН\n"
	newsText = "Barcha yangiliklarni kuzatib boring"

	msgBlocked = "⛔️ Siz bloklangansiz.\n" +
		"Admin tomonidan blokdan chiqarilgach botdan foydalanishingiz mumkin."
	msgWelcomeBack    = "👋 Xush kelibsiz!"
	msgWelcomeNew     = "👋 Assalomu alaykum! Botdan foydalanish uchun telefon raqamingizni yuboring."
	msgNeedPhone      = "📲 Iltimos, botdan foydalanish uchun telefon raqamingizni yuboring."
	msgOwnContactOnly = "⚠️ Iltimos, o'zingizning raqamingizni yuboring."
	msgRegistered     = "✅ Rahmat! Endi botdan foydalanishingiz mumkin."
	msgUseMenu        = "👉 Iltimos, menyudan tanlang."
	msgActionCanceled = "❌ Amal bekor qilindi."
	msgInternalError  = "❌ Xatolik yuz berdi. Keyinroq urinib ko'ring."
	msgUserNotFound   = "❌ Foydalanuvchi topilmadi."
	msgProductMissing = "❌ Mahsulot topilmadi."

	msgNoProducts       = "📭 Hozircha mahsulotlar mavjud emas."
	msgNoProductsShort  = "📭 Mahsulotlar mavjud emas."
	msgAddProductPrompt = "➕ Mahsulot qo'shish uchun pastdagi tugmani bosing."
	msgProductName      = "📝 Mahsulot nomini kiriting."
	msgProductPrice     = "💰 Narxini kiriting (1 kg uchun)."
	msgProductPriceBad  = "⚠️ Narxni to'g'ri kiriting (masalan: 12000)."
	msgProductDesc      = "🗒 Tavsifini kiriting yoki o'tkazib yuboring."
	msgProductPhoto     = "🖼 Agar rasm bo'lsa yuboring (1 dona). O'tkazish uchun 'O'tkazish' tugmasini bosing."
	msgPhotoExpected    = "📷 Iltimos, rasm yuboring yoki 'O'tkazish' tugmasini bosing."
	msgProductAdded     = "✅ Mahsulot qo'shildi."
	msgEditWhat         = "✏️ Nimani tahrirlaysiz?"
	msgEditCancelHint   = "❌ Agar bekor qilmoqchi bo'lsangiz, Bekor qilish tugmasini bosing."
	msgEditNewPhoto     = "🖼 Yangi rasmni yuboring (1 dona). Tugatish: 'O'tkazish' tugmasi."
	msgEditNewValue     = "📝 Yangi qiymatni kiriting."
	msgEditPriceBad     = "⚠️ Narxni to'g'ri kiriting."
	msgProductUpdated   = "✅ Mahsulot yangilandi."
	msgPhotosUpdated    = "✅ Rasmlar yangilandi."
	msgDeleteProductAsk = "🗑 Mahsulotni o'chirishni tasdiqlaysizmi?"
	msgProductDeleted   = "🗑 Mahsulot o'chirildi."
	msgProductNotFound  = "🔎 Mahsulot topilmadi."
	msgDeleteUndone     = "↩️ O'chirish bekor qilindi"

	msgOrderQuantity    = "⚖️ Necha tonna kerak? (masalan: 2.3 yoki 2,3)\n📌 Minimal buyurtma: %s tonna."
	msgOrderQuantityBad = "⚠️ Miqdorni to'g'ri kiriting (faqat raqamlar: 2, 2.3 yoki 2,3)."
	msgOrderBelowMin    = "⚠️ Minimal buyurtma %s tonna. Iltimos, qayta kiriting."
	msgOrderAddress     = "📍 Manzilni kiriting yoki lokatsiyani yuboring."
	msgLocationSent     = "📍 Lokatsiya yuborildi"
	msgAddressMissing   = "⚠️ Manzil topilmadi, qayta kiriting."
	msgOrderCanceled    = "❌ Ariza bekor qilindi."
	msgOrderConfirmed   = "✅ Buyurtma tasdiqlandi!"
	msgOrderDropped     = "❌ Buyurtma bekor qilindi."
	ansOrderConfirmed   = "✅ Buyurtma tasdiqlandi"
	ansCanceled         = "❌ Bekor qilindi"
	newOrderHeader      = "🆕 Yangi ariza:\n"
	orderConfirmTitle   = "Buyurtma ma'lumotlari:"
	orderConfirmAsk     = "✅ Buyurtmani tasdiqlaysizmi?"

	msgAdminOrderPhone    = "📞 Mijoz telefon raqamini kiriting."
	msgAdminOrderPhoneBad = "⚠️ Telefon raqamini kiriting."
	msgAdminOrderFound    = "✅ Mijoz topildi: %s. 📍 Manzilni kiriting."
	msgAdminOrderName     = "👤 Mijoz ismini kiriting."
	msgAdminOrderNameBad  = "⚠️ Iltimos, mijoz ismini kiriting."
	msgAdminOrderAddress  = "📍 Mijoz manzilini kiriting."
	msgAdminOrderAddrBad  = "⚠️ Manzilni kiriting."
	msgAdminOrderProduct  = "📦 Mahsulotni tanlang:"
	msgAdminOrderUseBtns  = "⚠️ Mahsulotni tanlash uchun tugmalardan foydalaning."
	msgAdminOrderQuantity = "⚖️ Buyurtma vaznini kiriting (masalan: 2.3 yoki 2,3 tonna)."
	msgAdminOrderQtyBad   = "⚠️ Miqdorni to'g'ri kiriting (masalan: 2, 2.3 yoki 2,3)."
	msgAdminOrderCreated  = "✅ Buyurtma yaratildi va yopildi. 🆔 ID: %d"
	ansAdminOrderCreated  = "✅ Buyurtma yaratildi"
	ansProductNotFound    = "❌ Mahsulot topilmadi"

	msgOrdersSummary = "🧾 Zayavkalar bo'yicha ma'lumot:\n" +
		"📦 Umumiy: %d\n" +
		"✅ Yopilgan: %d\n" +
		"❌ Bekor qilingan: %d\n" +
		"🟢 Ochiq: %d"
	msgNoOpenOrders        = "📭 Hozircha ochiq zayavkalar yo'q."
	msgNoClosedOrders      = "📭 Yopilgan zayavkalar yo'q."
	msgNoMoreClosedOrders  = "📭 Boshqa yopilgan zayavkalar yo'q."
	msgNoCanceledOrders    = "📭 Bekor qilingan zayavkalar yo'q."
	msgNoMoreCanceled      = "📭 Boshqa bekor qilingan zayavkalar yo'q."
	msgSearchPrompt        = "🔎 Buyurtma ID raqamini kiriting."
	msgSearchCanceled      = "❌ Qidiruv bekor qilindi."
	msgOrderIDExpected     = "⚠️ Iltimos, buyurtma ID raqamini kiriting."
	msgOrderNotFound       = "🔎 Buyurtma topilmadi."
	msgOrderNotFoundRetry  = "🔎 Buyurtma topilmadi. Qayta urinib ko'ring."
	msgSearchAgain         = "🔁 Yana bir ID kiriting yoki Bekor qilish tugmasini bosing."
	msgDeletePrompt        = "🗑 O'chirish uchun buyurtma ID raqamini kiriting."
	msgDeleteCanceled      = "❌ O'chirish bekor qilindi."
	msgDeleteConfirm       = "❗ Buyurtmani o'chirmoqchimisiz? Bu amal qaytarilmaydi.\n\n"
	msgOrderDeleted        = "✅ Buyurtma o'chirildi. ID: %d"
	ansOrderDeleted        = "✅ Buyurtma o'chirildi"
	ansOrderMissing        = "⚠️ Buyurtma topilmadi."
	msgDeleteKept          = "↩️ Buyurtmani o'chirish bekor qilindi."
	ansKept                = "↩️ Bekor qilindi"
	ansNotCanceled         = "↩️ Bekor qilinmadi"
	ansConfirmAdminCancel  = "❗ Zayavkani bekor qilishni tasdiqlang"
	ansConfirmUserCancel   = "❗ Buyurtmani bekor qilishni tasdiqlang"
	ansOrderClosed         = "✅ Zayavka qabul qilindi va yopildi"
	ansOrderCanceledAdmin  = "❌ Zayavka bekor qilindi"
	ansOrderCanceledUser   = "❌ Buyurtma bekor qilindi"
	ansCustomerCanceled    = "❌ Mijoz buyurtmani bekor qilgan."
	ansAlreadyCanceled     = "❌ Status allaqachon bekor qilingan."
	ansAlreadyClosed       = "✅ Status allaqachon yopilgan."
	ansClosedByOther       = "⚠️ Boshqa admin allaqachon statusni yopgan."
	ansCanceledByOther     = "⚠️ Boshqa admin allaqachon bekor qilgan."
	ansUserOrderAccepted   = "✅ Buyurtma allaqachon qabul qilingan."
	ansUserOrderCanceled   = "❌ Buyurtma allaqachon bekor qilingan."
	msgNoUserOrders        = "📭 Sizda buyurtmalar mavjud emas."
	btnNextPage            = "➡️ Yana 10 ta"
	customerOrderHeader    = "🧾 Siz uchun buyurtma yaratildi:"
	adminOrderConfirmTitle = "🧾 Buyurtma ma'lumotlari:"
	adminOrderConfirmAsk   = "Buyurtmani yaratishni tasdiqlaysizmi? Buyurtma «Yopilgan» holatida yaratiladi."

	msgSupportPrompt   = "🆘 Savolingizni yozing yoki rasm/video yuboring. Chiqish uchun Bekor qilish tugmasini bosing."
	msgSupportCanceled = "❌ Qo'llab-quvvatlash bekor qilindi."
	msgSingleMediaOnly = "⚠️ Iltimos, faqat bitta rasm yuboring yoki faqat matn yuboring."
	msgNoSupportGroup  = "⚠️ Hozircha qo'llab-quvvatlash guruhi mavjud emas."
	msgSupportFailed   = "⚠️ Xabarni yuborib bo'lmadi. Iltimos, keyinroq urinib ko'ring."
	msgSupportSent     = "✅ Xabaringiz yuborildi. Javobni shu yerda kuting."
	msgSupportLimited  = "⏳ Juda ko'p so'rov yuborildi. Iltimos, birozdan so'ng qayta urinib ko'ring."
	msgSupportReply    = "💬 Qo'llab-quvvatlashdan javob:"

	msgBroadcastPrompt   = "📣 Tarqatma uchun matn, foto yoki video yuboring."
	msgBroadcastConfirm  = "📣 Tarqatmani tasdiqlaysizmi? (Ha/Yo'q)"
	msgBroadcastYesNo    = "⚠️ Iltimos, Ha yoki Yo'q deb javob bering."
	msgBroadcastCanceled = "❌ Tarqatma bekor qilindi."
	msgBroadcastDone     = "✅ Tarqatma yakunlandi. Muvaffaqiyatli: %d, Xatolar: %d."

	msgBlockMenu        = "🔐 Foydalanuvchini bloklash yoki blokdan chiqarishni tanlang."
	msgBlockChooseBad   = "⚠️ Iltimos, bloklash yoki blokdan chiqarishni tanlang."
	msgBlockPhone       = "📲 Telefon raqamini yuboring (masalan: +998901234567)."
	msgBlockNotFound    = "⚠️ Foydalanuvchi topilmadi. Telefon raqamini tekshirib qayta yuboring."
	msgBlockAdmin       = "⚠️ Admin foydalanuvchini bloklab bo'lmaydi."
	msgAlreadyBlocked   = "ℹ️ Foydalanuvchi allaqachon bloklangan: %s."
	msgBlockedDone      = "✅ Foydalanuvchi bloklandi: %s."
	msgNotBlocked       = "ℹ️ Foydalanuvchi bloklanmagan: %s."
	msgUnblockedDone    = "✅ Foydalanuvchi blokdan chiqarildi: %s."
	msgStatsNoData      = "Hozircha ma'lumot yo'q."
	msgReportPeriod     = "📅 Hisobot davrini tanlang yoki boshlanish sanasini kiriting (YYYY-MM-DD yoki DD.MM.YYYY)."
	msgReportTypeStart  = "✍️ Sana kiritish uchun: boshlanish sanasini yuboring."
	msgReportDateBad    = "⚠️ Sana formatini tekshiring (masalan: 2024-01-31 yoki 31.01.2024)."
	msgReportEnd        = "📅 Hisobot uchun tugash sanasini kiriting (YYYY-MM-DD yoki DD.MM.YYYY)."
	msgReportEndBefore  = "⚠️ Tugash sanasi boshlanish sanasidan oldin bo'lmasligi kerak."
	msgReportLoading    = "⏳ Hisobot tayyorlanmoqda..."
	msgReportReady      = "📑 Hisobot tayyor.\nDavr: %s"
	msgReportFailed     = "❌ Hisobot tayyorlashda xatolik yuz berdi. Keyinroq urinib ko'ring."
	ansUnknownPeriod    = "⚠️ Davr topilmadi."
	msgDealUnavailable  = "⚠️ Hisoblab bo'lmadi"
	msgNotEntered       = "Kiritilmagan"
	msgUnknownPerson    = "👤 Noma'lum"
	msgUnknownUser      = "Noma'lum foydalanuvchi"
	msgSupportNoPhone   = "Telefon yo'q"
	locationLinkCaption = "Manzilga utish"
)
