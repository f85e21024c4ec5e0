package chromedp_fetcher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/catalog-service/internal/entity"
	"github.com/user/catalog-service/internal/repository"
)

// Selectors observed on the source site. Category cards appear under several
// wrappers depending on whether the listing is server-rendered or Algolia.
const (
	navItemSelector     = ".header__menu-item"
	productCardSelector = ".product-item, .ais-InfiniteHits-item, .product-card, .product-card-wrapper, .main-product-card"
	cardTitleSelector   = ".product-title, .product-card__title, h3, .truncate-title"
	authorSelector      = ".product-author, .author"
	priceSelector       = ".price, .product-price"
	descriptionSelector = ".description, .product-description"
	reviewSelector      = ".review-item, .feefo-review"
	reviewAuthorSel     = ".review-author, .feefo-review-author"
	reviewRatingSel     = ".rating, .star-rating"
	reviewTextSel       = ".review-text, .feefo-review-description"
)

// defaultReviewRating is used when the rating markup is missing or unclear.
const defaultReviewRating = 5

// ExtractRecords parses rendered page HTML into kind-tagged raw records.
// A missing field on an individual record degrades to a sentinel value;
// only wholly absent page structure is an error.
func ExtractRecords(kind entity.TargetKind, htmlContent string) (*entity.RawRecords, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	switch kind {
	case entity.KindNavigation:
		return &entity.RawRecords{Kind: kind, NavItems: extractNavigation(doc)}, nil
	case entity.KindCategory:
		return &entity.RawRecords{Kind: kind, ProductSummaries: extractCategory(doc)}, nil
	case entity.KindProduct:
		detail, err := extractProduct(doc)
		if err != nil {
			return nil, err
		}
		return &entity.RawRecords{Kind: kind, ProductDetail: detail}, nil
	default:
		return nil, fmt.Errorf("unsupported target kind %q", kind)
	}
}

func extractNavigation(doc *goquery.Document) []entity.RawNavItem {
	var items []entity.RawNavItem
	doc.Find(navItemSelector).Each(func(i int, s *goquery.Selection) {
		link, _ := s.Attr("href")
		items = append(items, entity.RawNavItem{
			Title: strings.TrimSpace(s.Text()),
			Link:  link,
		})
	})
	return items
}

// extractCategory returns one candidate record per product card. An empty
// result is not an error: some listing pages legitimately carry no products.
func extractCategory(doc *goquery.Document) []entity.RawProductSummary {
	var items []entity.RawProductSummary
	doc.Find(productCardSelector).Each(func(i int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find(cardTitleSelector).First().Text())
		if title == "" {
			title = entity.UnknownTitle
		}

		imgEl := card.Find("img").First()
		imageURL, ok := imgEl.Attr("src")
		if !ok || imageURL == "" {
			imageURL, _ = imgEl.Attr("data-src") // lazy-loaded images
		}

		link, _ := card.Find("a").First().Attr("href")
		if link == "" {
			// Sometimes the card itself is the link.
			link, _ = card.Attr("href")
		}

		items = append(items, entity.RawProductSummary{
			Title:     title,
			Author:    strings.TrimSpace(card.Find(authorSelector).First().Text()),
			PriceText: strings.TrimSpace(card.Find(priceSelector).First().Text()),
			ImageURL:  imageURL,
			Link:      link,
		})
	})
	return items
}

func extractProduct(doc *goquery.Document) (*entity.RawProductDetail, error) {
	titleEl := doc.Find("h1").First()
	if titleEl.Length() == 0 {
		return nil, fmt.Errorf("%w: no h1 on product page", repository.ErrMissingMarkup)
	}

	descriptionHTML := ""
	if descEl := doc.Find(descriptionSelector).First(); descEl.Length() > 0 {
		descriptionHTML, _ = descEl.Html()
	}

	var reviews []entity.RawReview
	doc.Find(reviewSelector).Each(func(i int, rev *goquery.Selection) {
		author := strings.TrimSpace(rev.Find(reviewAuthorSel).First().Text())
		if author == "" {
			author = "Anonymous"
		}
		rating := float64(defaultReviewRating)
		if raw, ok := rev.Find(reviewRatingSel).First().Attr("data-rating"); ok {
			if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
				rating = parsed
			}
		}
		reviews = append(reviews, entity.RawReview{
			Author: author,
			Rating: rating,
			Text:   strings.TrimSpace(rev.Find(reviewTextSel).First().Text()),
		})
	})

	return &entity.RawProductDetail{
		Title:           strings.TrimSpace(titleEl.Text()),
		Author:          strings.TrimSpace(doc.Find(authorSelector).First().Text()),
		PriceText:       strings.TrimSpace(doc.Find(priceSelector).First().Text()),
		DescriptionHTML: descriptionHTML,
		Specs:           map[string]string{},
		Reviews:         reviews,
	}, nil
}
