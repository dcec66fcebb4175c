// Package parser turns Korean card/bank push-notification text into a canonical
// transaction record.
//
// Every extractor is a pure function over whitespace-normalized text and degrades to a
// documented default instead of failing, so Parse is total over all strings:
//
//	[현대카드] 10/07 13:45 12,300원 일시불 CU당산점 승인
//
// yields amount 12300, brand 현대카드, method 일시불, merchant CU당산점, type 승인.
package parser
